package runner

import (
	"context"
	"time"

	"github.com/codequest-labs/codequest/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRunner returns a docker-backed Runner, or nil when no docker daemon is
// reachable. A nil Runner makes the worker fall back to plain local
// execution.
func NewRunner(cfg config.Config, log *zap.Logger) Runner {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if !Available(ctx) {
		log.Warn("docker unavailable, jobs will run unsandboxed on the worker host")
		return nil
	}
	return NewDockerRunner(cfg.RunnerImage, log)
}

var Module = fx.Module("runner",
	fx.Provide(NewRunner),
)
