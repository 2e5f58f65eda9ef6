package migration

import (
	badgedomain "github.com/codequest-labs/codequest/internal/badge/domain"
	"github.com/codequest-labs/codequest/internal/config"
	jobdomain "github.com/codequest-labs/codequest/internal/job/domain"
	"github.com/codequest-labs/codequest/internal/seed"
	streakdomain "github.com/codequest-labs/codequest/internal/streak/domain"
	userdomain "github.com/codequest-labs/codequest/internal/user/domain"
	xpdomain "github.com/codequest-labs/codequest/internal/xp/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, rules *config.BadgeRulesHolder) error {
		// The SQL migrations are written for Postgres. The sqlite dev path
		// derives its schema from the models instead.
		if conn.Dialector.Name() == "sqlite" {
			if err := conn.AutoMigrate(
				&userdomain.User{},
				&xpdomain.XPEvent{},
				&badgedomain.Badge{},
				&badgedomain.UserBadge{},
				&streakdomain.Streak{},
				&jobdomain.Job{},
			); err != nil {
				return err
			}
		} else {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if err := seed.EnsureBadgeCatalog(conn, rules.Get()); err != nil {
			return err
		}
		if !cfg.IsProduction() {
			return seed.EnsureAdminUser(conn)
		}
		return nil
	}),
)
