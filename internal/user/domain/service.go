package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type LeaderboardRow struct {
	Rank        int          `json:"rank"`
	UserID      snowflake.ID `json:"user_id"`
	DisplayName string       `json:"display_name"`
	XP          int64        `json:"xp"`
	Level       int          `json:"level"`
}

type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (*User, error)
	GetByID(ctx context.Context, id snowflake.ID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
}

var (
	ErrNotFound           = errors.New("user_not_found")
	ErrInvalidDisplayName = errors.New("invalid_display_name")
	ErrUserExists         = errors.New("user_exists")
)
