package timeseries

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
)

// FXModule contributes the time-series connector to the service registry. The pool itself
// is opened lazily by the registry and closed by its shutdown hook.
var FXModule = fx.Module("timeseries",
	fx.Provide(services.AsBinding(NewBinding)),
)
