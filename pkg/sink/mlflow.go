package sink

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/metrics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/mlflow"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/record"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/tracer"
)

// MLflowSink logs the numeric values of a payload as metrics of one MLflow run.
//
// Top-level numbers keep their key and numbers inside a one-level group become
// "<group>_<stat>". Payload times are taken from the timestamp field when present.
type MLflowSink struct {
	base
}

// NewMLflowSink creates the sink. m and tr may be nil.
func NewMLflowSink(svc ServiceProvider, logger Logger, m *metrics.Metrics, tr *tracer.Tracer) *MLflowSink {
	return &MLflowSink{base: base{
		name:     MLflowName,
		kind:     services.MLflow,
		services: svc,
		logger:   logger,
		metrics:  m,
		tracer:   tr,
	}}
}

// Write logs one payload as a run.
func (s *MLflowSink) Write(ctx context.Context, payload map[string]any) bool {
	return s.WriteBatch(ctx, []map[string]any{payload})
}

// WriteBatch logs every payload with metrics into one run, using the payload's position
// in the batch as the metric step. Payloads without numbers are rejected individually.
func (s *MLflowSink) WriteBatch(ctx context.Context, payloads []map[string]any) (ok bool) {
	var all []mlflow.Metric
	rejected := 0
	for step, p := range payloads {
		m := metricsOf(p, int64(step))
		if len(m) == 0 {
			rejected++
			s.reject(ErrNoMetrics, reason(ErrNoMetrics), nil)
			continue
		}
		all = append(all, m...)
	}
	if len(all) == 0 {
		return false
	}

	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "sink.mlflow.write")
	defer func() {
		s.metrics.ObserveSinkWrite(s.name, start, ok)
		span.End()
	}()

	w, err := handle[RunLogger](ctx, &s.base)
	if err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		s.logger.Error("mlflow backend unavailable", err, nil)
		return false
	}
	if _, err := w.LogRun(ctx, all); err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		s.logger.Error("mlflow write failed", err, map[string]interface{}{"metrics": len(all)})
		return false
	}
	return rejected == 0
}

func metricsOf(payload map[string]any, step int64) []mlflow.Metric {
	var ts int64
	if raw, ok := payload[record.TimestampField]; ok && raw != nil {
		if t, err := schema.Datetime.Cast(raw); err == nil {
			ts = t.(time.Time).UnixMilli()
		}
	}

	var out []mlflow.Metric
	add := func(key string, v any) {
		if f, ok := number(v); ok {
			out = append(out, mlflow.Metric{Key: metricKey(key), Value: f, Timestamp: ts, Step: step})
		}
	}
	for _, key := range sortedNames(payload) {
		if key == record.TimestampField {
			continue
		}
		if group, ok := payload[key].(map[string]any); ok {
			for _, stat := range sortedNames(group) {
				add(key+"_"+stat, group[stat])
			}
			continue
		}
		add(key, payload[key])
	}
	return out
}

// number accepts Go numbers and json.Number. Strings and bools are not metrics.
func number(v any) (float64, bool) {
	switch v.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
	default:
		return 0, false
	}
	f, err := schema.Float.Cast(v)
	if err != nil || f == nil {
		return 0, false
	}
	return f.(float64), true
}

// metricKey replaces characters MLflow does not accept in metric names.
func metricKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '-', r == '.', r == ' ', r == '/':
			return r
		}
		return '_'
	}, key)
}

func sortedNames(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
