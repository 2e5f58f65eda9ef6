package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CheckinResult struct {
	Duplicate     bool     `json:"duplicate,omitempty"`
	NewXP         int64    `json:"new_xp,omitempty"`
	NewLevel      int      `json:"new_level,omitempty"`
	LeveledUp     bool     `json:"leveled_up,omitempty"`
	CurrentStreak int      `json:"current_streak"`
	AwardedBadges []string `json:"awarded_badges,omitempty"`
}

type Service interface {
	// Checkin bumps the streak once per calendar day and awards the daily XP
	// bonus. A repeat call on the same day reports Duplicate without touching
	// the streak or the ledger.
	Checkin(ctx context.Context, userID snowflake.ID) (*CheckinResult, error)
	Get(ctx context.Context, userID snowflake.ID) (*Streak, error)
}
