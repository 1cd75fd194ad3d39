package apikey

import (
	"go.uber.org/fx"

	"github.com/briarworks/briarkeep/internal/apikey/repository"
	"github.com/briarworks/briarkeep/internal/apikey/service"
)

var Module = fx.Module("apikey",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
