package counter

import (
	"context"
	"testing"
	"time"

	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CountsWithinTTL(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	store := NewMemoryStore(clk)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.Incr(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMemoryStore_ExpiryFollowsInjectedClock(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	store := NewMemoryStore(clk)
	ctx := context.Background()

	got, err := store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	clk.Advance(30 * time.Second)
	got, err = store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	// past the TTL the key starts over without any wall-clock time passing
	clk.Advance(2 * time.Minute)
	got, err = store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
