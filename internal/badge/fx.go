package badge

import (
	"github.com/codequest-labs/codequest/internal/badge/service"
	"github.com/codequest-labs/codequest/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("badge",
	fx.Provide(
		config.NewBadgeRulesHolder,
		service.NewService,
	),
)
