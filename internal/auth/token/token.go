// Package token issues and verifies the HS256 bearer tokens used by the API.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/codequest-labs/codequest/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid_token")

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{
		secret: []byte(cfg.AuthJWTSecret),
		ttl:    cfg.AuthTokenTTL,
	}
}

// Issue signs a token whose subject is the user id.
func (m *Manager) Issue(userID snowflake.ID, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses the token and returns the user id from the subject.
func (m *Manager) Verify(raw string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return 0, ErrInvalidToken
	}
	id, err := snowflake.ParseString(claims.Subject)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
