package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type AwardRequest struct {
	UserID         snowflake.ID   `json:"user_id"`
	Amount         int64          `json:"xp"`
	Source         string         `json:"source"`
	SourceID       string         `json:"source_id"`
	IdempotencyKey string         `json:"idempotency_key"`
	Metadata       map[string]any `json:"metadata"`
}

type AwardResult struct {
	Duplicate          bool     `json:"duplicate,omitempty"`
	NewXP              int64    `json:"new_xp"`
	NewLevel           int      `json:"new_level"`
	LeveledUp          bool     `json:"leveled_up"`
	NextLevelThreshold int64    `json:"next_level_threshold"`
	AwardedBadges      []string `json:"awarded_badges,omitempty"`
}

// RateLimitedError carries the retry hint for a denied award.
type RateLimitedError struct {
	RetryAfterSeconds int64
}

func (e *RateLimitedError) Error() string { return "rate_limited" }

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

type Service interface {
	Award(ctx context.Context, req AwardRequest) (*AwardResult, error)
	RecentEvents(ctx context.Context, userID snowflake.ID, limit int) ([]XPEvent, error)
}

var (
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrRateLimited   = errors.New("rate_limited")
)
