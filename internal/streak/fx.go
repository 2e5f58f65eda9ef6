package streak

import (
	"github.com/codequest-labs/codequest/internal/streak/service"
	"go.uber.org/fx"
)

var Module = fx.Module("streak",
	fx.Provide(
		service.NewService,
	),
)
