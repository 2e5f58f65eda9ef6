package xp

import (
	"github.com/codequest-labs/codequest/internal/xp/service"
	"go.uber.org/fx"
)

var Module = fx.Module("xp",
	fx.Provide(
		service.NewService,
	),
)
