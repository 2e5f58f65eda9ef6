// Package domain defines the authentication operations and errors.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/codequest-labs/codequest/internal/user/domain"
)

type SignupRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token string           `json:"token"`
	User  *userdomain.User `json:"user"`
}

type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResult, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	// GitHubExchange trades an OAuth code for a token, creating or linking a
	// local account keyed by the GitHub account id.
	GitHubExchange(ctx context.Context, code string) (*AuthResult, error)
	// DevLogin issues a token for an arbitrary user. Gated by configuration.
	DevLogin(ctx context.Context, userID snowflake.ID) (*AuthResult, error)
}

var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserExists         = errors.New("user_exists")
	ErrOAuthUnavailable   = errors.New("oauth_unavailable")
	ErrDevLoginDisabled   = errors.New("dev_login_disabled")
)
