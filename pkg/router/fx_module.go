package router

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/bus"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/metrics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/sink"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/tracer"
)

// Params gathers the router's dependencies.
type Params struct {
	fx.In

	Config     Config
	Consumer   bus.Consumer
	TimeSeries *sink.TimeSeriesSink
	Analytical *sink.AnalyticalSink
	MLflow     *sink.MLflowSink `optional:"true"`
	Logger     Logger
	Metrics    *metrics.Metrics `optional:"true"`
	Tracer     *tracer.Tracer   `optional:"true"`
}

// FXModule provides the Router with its static topic table and starts it with the
// application.
var FXModule = fx.Module("router",
	fx.Provide(NewFromParams),
	fx.Invoke(RegisterRouterLifecycle),
)

// NewFromParams binds the raw topic to the time-series sink and the processed topic to
// the analytical sink. The MLflow topic, when configured, is bound to the MLflow sink.
func NewFromParams(p Params) (*Router, error) {
	cfg := p.Config.withDefaults()
	decoder, err := NewDecoder(cfg.PayloadFormat)
	if err != nil {
		return nil, err
	}
	bindings := map[string]Sink{
		cfg.RawTopic:       p.TimeSeries,
		cfg.ProcessedTopic: p.Analytical,
	}
	if cfg.MLflowTopic != "" && p.MLflow != nil {
		bindings[cfg.MLflowTopic] = p.MLflow
	}
	return New(p.Consumer, bindings, p.Logger,
		WithDecoder(decoder),
		WithMetrics(p.Metrics),
		WithTracer(p.Tracer),
		WithStartTimeout(cfg.StartTimeout),
		WithStopTimeout(cfg.StopTimeout),
	), nil
}

// RegisterRouterLifecycle starts the router on application start and stops it on
// shutdown. A bus that cannot be started leaves ingestion disabled without failing the
// application.
func RegisterRouterLifecycle(lc fx.Lifecycle, r *Router) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = r.Start(ctx, r.Topics())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return r.Stop(ctx)
		},
	})
}
