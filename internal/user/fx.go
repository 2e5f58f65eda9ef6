package user

import (
	"github.com/codequest-labs/codequest/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user",
	fx.Provide(
		service.NewService,
	),
)
