package subscription

import (
	"github.com/briarworks/briarkeep/internal/subscription/repository"
	"github.com/briarworks/briarkeep/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
