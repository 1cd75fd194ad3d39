package entitlement

import (
	"go.uber.org/fx"

	"github.com/briarworks/briarkeep/internal/entitlement/service"
)

var Module = fx.Module("entitlement",
	fx.Provide(
		service.NewService,
	),
)
