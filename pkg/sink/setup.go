package sink

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/metrics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/tracer"
)

// Sink names used in logs and metric labels.
const (
	TimeSeriesName = "timeseries"
	AnalyticalName = "analytical"
	MLflowName     = "mlflow"
)

// Logger defines the logging surface of the sinks.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=sink
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

type base struct {
	name     string
	kind     services.Kind
	services ServiceProvider
	logger   Logger
	metrics  *metrics.Metrics
	tracer   *tracer.Tracer
}

func handle[T any](ctx context.Context, b *base) (T, error) {
	var zero T
	svc, err := b.services.GetService(ctx, b.kind)
	if err != nil {
		return zero, err
	}
	w, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("%s service %T cannot be used by the %s sink", b.kind, svc, b.name)
	}
	return w, nil
}

func (b *base) reject(err error, reason string, fields map[string]interface{}) {
	b.metrics.IncRejected(b.name, reason)
	b.logger.Warn("payload rejected", err, fields)
}
