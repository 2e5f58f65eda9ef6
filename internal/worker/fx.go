package worker

import (
	"context"

	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/config"
	"github.com/codequest-labs/codequest/internal/job/queue"
	"github.com/codequest-labs/codequest/internal/metrics"
	"github.com/codequest-labs/codequest/internal/runner"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Param struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Cfg     config.Config
	Clock   clock.Clock
	Queue   queue.Queue
	Runner  runner.Runner    `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

func NewWorker(p Param) *Worker {
	return New(p.DB, p.Log, p.Cfg, p.Clock, p.Queue, p.Runner, p.Metrics)
}

func Run(lc fx.Lifecycle, w *Worker) {
	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go w.RunForever(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

var Module = fx.Module("worker",
	fx.Provide(NewWorker),
	fx.Invoke(Run),
)
