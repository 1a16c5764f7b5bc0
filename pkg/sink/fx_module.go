package sink

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/metrics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/tracer"
)

// Params gathers the sinks' dependencies.
type Params struct {
	fx.In

	Config   Config
	Schema   *schema.Registry
	Services *services.Registry
	Logger   Logger
	Metrics  *metrics.Metrics `optional:"true"`
	Tracer   *tracer.Tracer   `optional:"true"`
}

// FXModule provides every sink. The MLflow sink is only written to when the router
// binds a topic to it.
var FXModule = fx.Module("sink",
	fx.Provide(
		func(p Params) *TimeSeriesSink {
			return NewTimeSeriesSink(p.Config, p.Schema, p.Services, p.Logger, p.Metrics, p.Tracer)
		},
		func(p Params) *AnalyticalSink {
			return NewAnalyticalSink(p.Services, p.Logger, p.Metrics, p.Tracer)
		},
		func(p Params) *MLflowSink {
			return NewMLflowSink(p.Services, p.Logger, p.Metrics, p.Tracer)
		},
	),
)
