package ratelimit

import (
	"context"
	"strings"

	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/config"
	"github.com/codequest-labs/codequest/internal/counter"
)

const (
	prefixAwards   = "rl:xp"
	prefixJobQuota = "rl:jobs"
)

// AwardLimiter gates XP awards per user.
type AwardLimiter struct {
	window *FixedWindow
}

func NewAwardLimiter(store counter.Store, clk clock.Clock, cfg config.Config) *AwardLimiter {
	return &AwardLimiter{
		window: NewFixedWindow(store, clk, prefixAwards, cfg.XPRateLimitMax, cfg.XPRateLimitWindow),
	}
}

func (l *AwardLimiter) Check(ctx context.Context, userID string) Result {
	return l.window.Check(ctx, strings.TrimSpace(userID))
}

// JobQuota gates job submissions per user.
type JobQuota struct {
	window *FixedWindow
}

func NewJobQuota(store counter.Store, clk clock.Clock, cfg config.Config) *JobQuota {
	return &JobQuota{
		window: NewFixedWindow(store, clk, prefixJobQuota, cfg.JobQuotaMax, cfg.JobQuotaWindow),
	}
}

func (l *JobQuota) Check(ctx context.Context, userID string) Result {
	return l.window.Check(ctx, strings.TrimSpace(userID))
}
