package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/counter"
)

// Result reports the outcome of a fixed-window check.
type Result struct {
	Allowed      bool
	Remaining    int64
	ResetSeconds int64
}

// FixedWindow counts hits per (key, window start) and denies once the window
// budget is spent. Counter storage is pluggable via counter.Store.
type FixedWindow struct {
	store  counter.Store
	clock  clock.Clock
	prefix string
	max    int64
	window time.Duration
}

func NewFixedWindow(store counter.Store, clk clock.Clock, prefix string, max int, window time.Duration) *FixedWindow {
	if window < time.Second {
		window = time.Second
	}
	return &FixedWindow{
		store:  store,
		clock:  clk,
		prefix: prefix,
		max:    int64(max),
		window: window,
	}
}

// Check consumes one slot for key in the current window. Counter store
// failures fail open so the pipeline never blocks on the limiter.
func (l *FixedWindow) Check(ctx context.Context, key string) Result {
	windowSec := int64(l.window / time.Second)
	now := l.clock.Now().Unix()
	windowStart := now - now%windowSec

	storeKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, windowStart)
	val, err := l.store.Incr(ctx, storeKey, l.window)
	if err != nil {
		return Result{Allowed: true, Remaining: l.max, ResetSeconds: windowStart + windowSec - now}
	}

	remaining := l.max - val
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:      val <= l.max,
		Remaining:    remaining,
		ResetSeconds: windowStart + windowSec - now,
	}
}
