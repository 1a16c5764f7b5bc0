package sink

import (
	"context"
	"time"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/metrics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/record"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/tracer"
)

// TimeSeriesSink validates raw payloads against the schema and writes them as points.
type TimeSeriesSink struct {
	base
	schema      SchemaSource
	builder     record.Builder
	measurement string
}

// NewTimeSeriesSink creates the sink. m and tr may be nil.
func NewTimeSeriesSink(cfg Config, schemas SchemaSource, svc ServiceProvider, logger Logger, m *metrics.Metrics, tr *tracer.Tracer) *TimeSeriesSink {
	measurement := cfg.Measurement
	if measurement == "" {
		measurement = record.DefaultMeasurement
	}
	return &TimeSeriesSink{
		base: base{
			name:     TimeSeriesName,
			kind:     services.TimeSeries,
			services: svc,
			logger:   logger,
			metrics:  m,
			tracer:   tr,
		},
		schema:      schemas,
		measurement: measurement,
	}
}

// Write persists one payload. It returns false when the payload is invalid or the
// backend write fails.
func (s *TimeSeriesSink) Write(ctx context.Context, payload map[string]any) (ok bool) {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "sink.timeseries.write")
	defer func() {
		s.metrics.ObserveSinkWrite(s.name, start, ok)
		span.End()
	}()

	point, valid := s.point(payload)
	if !valid {
		return false
	}

	w, err := handle[PointWriter](ctx, &s.base)
	if err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		s.logger.Error("timeseries backend unavailable", err, nil)
		return false
	}
	if err := w.WritePoint(ctx, point); err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		s.logger.Error("timeseries write failed", err, map[string]interface{}{
			"measurement": point.Measurement,
		})
		return false
	}
	return true
}

// WriteBatch validates every payload, rejecting invalid ones individually, and writes
// the valid ones in one backend call. It returns false if any payload was rejected or
// the write failed.
func (s *TimeSeriesSink) WriteBatch(ctx context.Context, payloads []map[string]any) (ok bool) {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "sink.timeseries.write_batch")
	defer func() {
		s.metrics.ObserveSinkWrite(s.name, start, ok)
		span.End()
	}()

	points := make([]record.Point, 0, len(payloads))
	for _, p := range payloads {
		if point, valid := s.point(p); valid {
			points = append(points, point)
		}
	}
	allValid := len(points) == len(payloads)
	if len(points) == 0 {
		return allValid
	}

	w, err := handle[PointWriter](ctx, &s.base)
	if err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		s.logger.Error("timeseries backend unavailable", err, nil)
		return false
	}
	if err := w.WritePoints(ctx, points); err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		s.logger.Error("timeseries batch write failed", err, map[string]interface{}{"points": len(points)})
		return false
	}
	return allValid
}

func (s *TimeSeriesSink) point(payload map[string]any) (record.Point, bool) {
	rec, err := s.builder.Build(payload, s.schema.Snapshot())
	if err != nil {
		s.reject(err, record.Reason(err), nil)
		return record.Point{}, false
	}
	return record.ToPoint(rec, s.measurement), true
}
