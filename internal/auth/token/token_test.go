package token

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/codequest-labs/codequest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(secret string, ttl time.Duration) *Manager {
	return NewManager(config.Config{AuthJWTSecret: secret, AuthTokenTTL: ttl})
}

func TestIssueAndVerify(t *testing.T) {
	m := newManager("test-secret", time.Hour)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	userID := node.Generate()

	token, err := m.Issue(userID, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestVerify_WrongSecret(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	token, err := newManager("secret-a", time.Hour).Issue(node.Generate(), time.Now())
	require.NoError(t, err)

	_, err = newManager("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	m := newManager("test-secret", time.Hour)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	token, err := m.Issue(node.Generate(), time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	m := newManager("test-secret", time.Hour)

	for _, raw := range []string{"", "   ", "not-a-token", "a.b.c"} {
		_, err := m.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "raw %q", raw)
	}
}
