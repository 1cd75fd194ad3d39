package account

import (
	"github.com/briarworks/briarkeep/internal/account/repository"
	"github.com/briarworks/briarkeep/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
