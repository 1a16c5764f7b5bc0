package kafka

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/bus"
)

// FXModule offers the Kafka consumer to bus selection.
var FXModule = fx.Module("kafka",
	fx.Provide(bus.AsFactory(NewFactory)),
)
