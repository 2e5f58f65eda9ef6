package auth

import (
	"github.com/codequest-labs/codequest/internal/auth/github"
	"github.com/codequest-labs/codequest/internal/auth/service"
	"github.com/codequest-labs/codequest/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(
		token.NewManager,
		github.NewClient,
		service.NewService,
	),
)
