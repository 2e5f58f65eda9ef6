// Package domain contains persistence models for the badge catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Badge struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Code        string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	Icon        string       `gorm:"type:text" json:"icon,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Badge) TableName() string { return "badges" }

type UserBadge struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID   snowflake.ID `gorm:"not null;uniqueIndex:uq_user_badge,priority:1" json:"user_id"`
	BadgeID  snowflake.ID `gorm:"not null;uniqueIndex:uq_user_badge,priority:2" json:"badge_id"`
	EarnedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"earned_at"`
}

func (UserBadge) TableName() string { return "user_badges" }
