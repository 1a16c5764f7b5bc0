package config

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/analytics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/api"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/bus"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/kafka"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/logger"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/metrics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/mlflow"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/rabbit"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/router"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/sink"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/timeseries"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/tracer"
)

// Sections exposes every section of Config as its own value in the fx graph.
type Sections struct {
	fx.Out

	Logger     logger.Config
	Metrics    metrics.Config
	Tracer     tracer.Config
	Schema     schema.Config
	Services   services.Config
	TimeSeries timeseries.Config
	Analytics  analytics.Config
	MLflow     mlflow.Config
	Bus        bus.Config
	Kafka      kafka.Config
	Rabbit     rabbit.Config
	Sink       sink.Config
	Router     router.Config
	API        api.Config
}

// Split fans cfg out into its sections.
func Split(cfg Config) Sections {
	return Sections{
		Logger:     cfg.Logger,
		Metrics:    cfg.Metrics,
		Tracer:     cfg.Tracer,
		Schema:     cfg.Schema,
		Services:   cfg.Services,
		TimeSeries: cfg.TimeSeries,
		Analytics:  cfg.Analytics,
		MLflow:     cfg.MLflow,
		Bus:        cfg.Bus,
		Kafka:      cfg.Kafka,
		Rabbit:     cfg.Rabbit,
		Sink:       cfg.Sink,
		Router:     cfg.Router,
		API:        cfg.API,
	}
}

// FXModule loads the configuration from path and provides its sections.
func FXModule(path string) fx.Option {
	return fx.Module("config",
		fx.Provide(
			func() (Config, error) { return Load(path) },
			Split,
		),
	)
}
