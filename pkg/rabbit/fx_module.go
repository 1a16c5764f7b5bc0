package rabbit

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/bus"
)

// FXModule offers the RabbitMQ consumer to bus selection.
var FXModule = fx.Module("rabbit",
	fx.Provide(bus.AsFactory(NewFactory)),
)
