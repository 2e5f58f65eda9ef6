// Package domain contains persistence models for player accounts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User stores one player account with its denormalized XP balance and level.
// XPTotal and Level are owned by the award engine and only change under its
// row lock.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Username     *string      `gorm:"type:text;uniqueIndex" json:"username,omitempty"`
	DisplayName  string       `gorm:"type:text;not null" json:"display_name"`
	Email        *string      `gorm:"type:text;uniqueIndex" json:"email,omitempty"`
	PasswordHash *string      `gorm:"type:text" json:"-"`
	GitHubID     *string      `gorm:"column:github_id;type:text;uniqueIndex" json:"-"`
	XPTotal      int64        `gorm:"column:xp_total;not null;default:0" json:"xp_total"`
	Level        int          `gorm:"not null;default:1" json:"level"`
	IsAdmin      bool         `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
