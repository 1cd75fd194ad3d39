package collection

import (
	"go.uber.org/fx"

	"github.com/briarworks/briarkeep/internal/collection/repository"
	"github.com/briarworks/briarkeep/internal/collection/service"
)

var Module = fx.Module("collection",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
