// Package domain contains the daily check-in streak model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Streak struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID          snowflake.ID `gorm:"not null;uniqueIndex" json:"user_id"`
	CurrentStreak   int          `gorm:"not null;default:0" json:"current_streak"`
	LastCheckinDate *time.Time   `gorm:"column:last_checkin_date;type:date" json:"last_checkin_date,omitempty"`
}

func (Streak) TableName() string { return "streaks" }
