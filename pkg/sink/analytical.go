package sink

import (
	"context"
	"time"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/aggregate"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/metrics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/tracer"
)

// AnalyticalSink flattens aggregate windows and writes them as rows. Windows with a zero
// sample count are acknowledged without a write.
type AnalyticalSink struct {
	base
	transformer aggregate.Transformer
}

// NewAnalyticalSink creates the sink. m and tr may be nil.
func NewAnalyticalSink(svc ServiceProvider, logger Logger, m *metrics.Metrics, tr *tracer.Tracer) *AnalyticalSink {
	return &AnalyticalSink{
		base: base{
			name:     AnalyticalName,
			kind:     services.Analytical,
			services: svc,
			logger:   logger,
			metrics:  m,
			tracer:   tr,
		},
		transformer: aggregate.NewTransformer(),
	}
}

// Write persists one window. It returns true without touching the backend when the
// window holds no samples.
func (s *AnalyticalSink) Write(ctx context.Context, payload map[string]any) (ok bool) {
	if s.empty(payload) {
		return true
	}

	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "sink.analytical.write")
	defer func() {
		s.metrics.ObserveSinkWrite(s.name, start, ok)
		span.End()
	}()

	w, err := handle[RowWriter](ctx, &s.base)
	if err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		s.logger.Error("analytical backend unavailable", err, nil)
		return false
	}

	row, valid := s.row(payload, w.Columns())
	if !valid {
		return false
	}
	if err := w.InsertRow(ctx, row); err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		s.logger.Error("analytical write failed", err, map[string]interface{}{
			"cell_index": payload[aggregate.FieldCellIndex],
		})
		return false
	}
	return true
}

// WriteBatch skips empty windows, rejects invalid ones individually and inserts the rest
// in one backend call.
func (s *AnalyticalSink) WriteBatch(ctx context.Context, payloads []map[string]any) (ok bool) {
	pending := make([]map[string]any, 0, len(payloads))
	for _, p := range payloads {
		if !s.empty(p) {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return true
	}

	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "sink.analytical.write_batch")
	defer func() {
		s.metrics.ObserveSinkWrite(s.name, start, ok)
		span.End()
	}()

	w, err := handle[RowWriter](ctx, &s.base)
	if err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		s.logger.Error("analytical backend unavailable", err, nil)
		return false
	}

	columns := w.Columns()
	rows := make([]aggregate.Row, 0, len(pending))
	for _, p := range pending {
		if row, valid := s.row(p, columns); valid {
			rows = append(rows, row)
		}
	}
	allValid := len(rows) == len(pending)
	if len(rows) == 0 {
		return allValid
	}
	if err := w.InsertRows(ctx, rows); err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		s.logger.Error("analytical batch write failed", err, map[string]interface{}{"rows": len(rows)})
		return false
	}
	return allValid
}

// empty reports a window whose sample_count is present and zero.
func (s *AnalyticalSink) empty(payload map[string]any) bool {
	n, ok := aggregate.SampleCount(payload)
	if !ok || n != 0 {
		return false
	}
	s.metrics.IncSkippedWindows(s.name)
	s.logger.Debug("skipping window without samples", nil, map[string]interface{}{
		"cell_index": payload[aggregate.FieldCellIndex],
	})
	return true
}

func (s *AnalyticalSink) row(payload map[string]any, columns aggregate.ColumnSet) (aggregate.Row, bool) {
	row, err := s.transformer.Flatten(payload, columns)
	if err != nil {
		s.reject(err, reason(err), map[string]interface{}{
			"cell_index": payload[aggregate.FieldCellIndex],
		})
		return nil, false
	}
	return row, true
}
