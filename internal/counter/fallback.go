package counter

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type fallbackStore struct {
	primary  Store
	fallback Store
	log      *zap.Logger
}

// NewFallbackStore tries the primary store and degrades to the fallback when
// the primary errors, so a Redis outage never blocks the request path.
func NewFallbackStore(primary, fallback Store, log *zap.Logger) Store {
	return &fallbackStore{
		primary:  primary,
		fallback: fallback,
		log:      log.Named("counter.fallback"),
	}
}

func (s *fallbackStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	val, err := s.primary.Incr(ctx, key, ttl)
	if err == nil {
		return val, nil
	}
	s.log.Warn("primary counter store unavailable", zap.Error(err))
	return s.fallback.Incr(ctx, key, ttl)
}
