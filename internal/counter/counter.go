// Package counter provides the shared fixed-window counter store backing the
// rate limiter and the job quota guard.
package counter

import (
	"context"
	"time"
)

// Store increments a windowed counter key. The TTL applies when the key is
// first created inside the window.
type Store interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
