// Command api runs the HTTP API without an embedded worker. Pair it with the
// worker app when splitting the deployment.
package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/codequest-labs/codequest/internal/auth"
	"github.com/codequest-labs/codequest/internal/badge"
	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/config"
	"github.com/codequest-labs/codequest/internal/counter"
	"github.com/codequest-labs/codequest/internal/job"
	"github.com/codequest-labs/codequest/internal/logger"
	"github.com/codequest-labs/codequest/internal/metrics"
	"github.com/codequest-labs/codequest/internal/migration"
	"github.com/codequest-labs/codequest/internal/ratelimit"
	"github.com/codequest-labs/codequest/internal/server"
	"github.com/codequest-labs/codequest/internal/streak"
	"github.com/codequest-labs/codequest/internal/user"
	"github.com/codequest-labs/codequest/internal/xp"
	"github.com/codequest-labs/codequest/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,
		counter.Module,
		ratelimit.Module,

		user.Module,
		xp.Module,
		badge.Module,
		streak.Module,
		auth.Module,
		job.Module,

		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
