package analytics

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
)

// FXModule contributes the analytical connector to the service registry.
var FXModule = fx.Module("analytics",
	fx.Provide(services.AsBinding(NewBinding)),
)
