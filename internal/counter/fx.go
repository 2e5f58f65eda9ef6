package counter

import (
	"strings"

	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRedisClient returns a shared Redis client, or nil when no address is
// configured. Consumers must handle the nil case.
func NewRedisClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func NewStore(client *redis.Client, clk clock.Clock, log *zap.Logger) Store {
	memory := NewMemoryStore(clk)
	if client == nil {
		return memory
	}
	return NewFallbackStore(NewRedisStore(client), memory, log)
}

var Module = fx.Module("counter",
	fx.Provide(
		NewRedisClient,
		NewStore,
	),
)
