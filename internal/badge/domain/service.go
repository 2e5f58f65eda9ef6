package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type EarnedBadge struct {
	ID       snowflake.ID `json:"id"`
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	EarnedAt time.Time    `json:"earned_at"`
}

type CreateBadgeRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type Service interface {
	List(ctx context.Context) ([]Badge, error)
	ListForUser(ctx context.Context, userID snowflake.ID) ([]EarnedBadge, error)
	Create(ctx context.Context, req CreateBadgeRequest) (*Badge, error)
	// AwardByCode grants an existing catalog badge. Returns false when the
	// user already holds it.
	AwardByCode(ctx context.Context, userID snowflake.ID, code string) (bool, error)
	// AwardIfMissing creates the catalog entry if absent, then grants it.
	AwardIfMissing(ctx context.Context, userID snowflake.ID, code, name, description string) (bool, error)
	// EvaluateForUser runs the declarative rule set. Best effort: failures are
	// logged and an empty slice returned, never an error.
	EvaluateForUser(ctx context.Context, userID snowflake.ID) []string
}

var (
	ErrNotFound    = errors.New("badge_not_found")
	ErrInvalidName = errors.New("invalid_badge_name")
	ErrBadgeExists = errors.New("badge_exists")
)
