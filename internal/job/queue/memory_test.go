package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_FIFO(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "a"))
	require.NoError(t, q.Enqueue(ctx, "b"))

	id, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	id, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "b", id)
}

func TestMemoryQueue_DequeueTimesOutEmpty(t *testing.T) {
	q := NewMemoryQueue()

	start := time.Now()
	id, err := q.Dequeue(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMemoryQueue_DequeueWakesOnEnqueue(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = q.Enqueue(ctx, "late")
	}()

	id, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "late", id)
}

func TestMemoryQueue_Remove(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "a"))
	require.NoError(t, q.Enqueue(ctx, "b"))

	removed, err := q.Remove(ctx, "a")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = q.Remove(ctx, "a")
	require.NoError(t, err)
	assert.False(t, removed)

	id, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "b", id)
}

func TestMemoryQueue_DequeueHonorsContext(t *testing.T) {
	q := NewMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Dequeue(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
