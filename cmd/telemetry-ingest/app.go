package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/analytics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/api"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/bus"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/config"
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

// options assembles the whole application.
func options(configPath string) fx.Option {
	return fx.Options(
		config.FXModule(configPath),
		logger.FXModule,
		fx.WithLogger(func(l *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Zap.Named("fx")}
		}),
		loggers(),

		metrics.FXModule,
		tracer.FXModule,
		schema.FXModule,

		timeseries.FXModule,
		analytics.FXModule,
		mlflow.FXModule,
		services.FXModule,

		kafka.FXModule,
		rabbit.FXModule,
		bus.FXModule,

		sink.FXModule,
		router.FXModule,
		api.FXModule,

		fx.Invoke(RegisterSchemaReload),
	)
}

// loggers exposes the shared *logger.Logger as every package's Logger interface.
func loggers() fx.Option {
	as := func(iface any) any {
		return fx.Annotate(func(l *logger.Logger) *logger.Logger { return l }, fx.As(iface))
	}
	return fx.Provide(
		as(new(metrics.Logger)),
		as(new(tracer.Logger)),
		as(new(schema.Logger)),
		as(new(services.Logger)),
		as(new(timeseries.Logger)),
		as(new(analytics.Logger)),
		as(new(mlflow.Logger)),
		as(new(bus.Logger)),
		as(new(kafka.Logger)),
		as(new(rabbit.Logger)),
		as(new(sink.Logger)),
		as(new(router.Logger)),
		as(new(api.Logger)),
	)
}

// RegisterSchemaReload reloads the field definitions whenever the process receives SIGHUP.
func RegisterSchemaReload(lc fx.Lifecycle, reg *schema.Registry, log *logger.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	hup := make(chan os.Signal, 1)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			signal.Notify(hup, syscall.SIGHUP)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-hup:
						log.Info("SIGHUP received, reloading schema", nil)
						reg.Reload()
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			signal.Stop(hup)
			cancel()
			return nil
		},
	})
}
