package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/aggregate"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/mlflow"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/record"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
)

type staticSchema struct{ snap *schema.Snapshot }

func (s staticSchema) Snapshot() *schema.Snapshot { return s.snap }

type fakeProvider struct {
	svc   services.Service
	err   error
	calls int
}

func (f *fakeProvider) GetService(_ context.Context, _ services.Kind) (services.Service, error) {
	f.calls++
	return f.svc, f.err
}

type fakePoints struct {
	points  []record.Point
	batches int
	err     error
}

func (f *fakePoints) WritePoint(_ context.Context, p record.Point) error {
	if f.err != nil {
		return f.err
	}
	f.points = append(f.points, p)
	return nil
}

func (f *fakePoints) WritePoints(_ context.Context, points []record.Point) error {
	if f.err != nil {
		return f.err
	}
	f.batches++
	f.points = append(f.points, points...)
	return nil
}

func (f *fakePoints) Close() error { return nil }

type fakeRows struct {
	columns aggregate.ColumnSet
	rows    []aggregate.Row
	batches int
	err     error
}

func (f *fakeRows) Columns() aggregate.ColumnSet { return f.columns }

func (f *fakeRows) InsertRow(_ context.Context, row aggregate.Row) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeRows) InsertRows(_ context.Context, rows []aggregate.Row) error {
	if f.err != nil {
		return f.err
	}
	f.batches++
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeRows) Close() error { return nil }

type fakeRuns struct {
	runs [][]mlflow.Metric
	err  error
}

func (f *fakeRuns) LogRun(_ context.Context, metrics []mlflow.Metric) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.runs = append(f.runs, metrics)
	return "run", nil
}

func (f *fakeRuns) Close() error { return nil }

type closer struct{}

func (closer) Close() error { return nil }

func quietLogger(t *testing.T) *MockLogger {
	ctrl := gomock.NewController(t)
	l := NewMockLogger(ctrl)
	l.EXPECT().Debug(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Warn(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Error(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	return l
}

func rawSchema() staticSchema {
	return staticSchema{snap: schema.NewSnapshot(
		map[string]schema.Kind{"cell_index": schema.Integer, "rsrp": schema.Float},
		map[string]schema.Kind{"timestamp": schema.Datetime, "operator": schema.String},
		[]string{"cell_index", "operator"},
	)}
}

func TestTimeSeriesSinkWritesPoint(t *testing.T) {
	w := &fakePoints{}
	s := NewTimeSeriesSink(Config{}, rawSchema(), &fakeProvider{svc: w}, quietLogger(t), nil, nil)

	ok := s.Write(context.Background(), map[string]any{
		"cell_index": int64(7),
		"rsrp":       -85.5,
		"operator":   "acme",
		"timestamp":  "2025-01-02T03:04:05Z",
	})
	require.True(t, ok)
	require.Len(t, w.points, 1)

	p := w.points[0]
	assert.Equal(t, record.DefaultMeasurement, p.Measurement)
	assert.Equal(t, map[string]string{"cell_index": "7", "operator": "acme"}, p.TagMap())
	assert.Equal(t, -85.5, p.Fields["rsrp"])
}

func TestTimeSeriesSinkUsesConfiguredMeasurement(t *testing.T) {
	w := &fakePoints{}
	s := NewTimeSeriesSink(Config{Measurement: "radio"}, rawSchema(), &fakeProvider{svc: w}, quietLogger(t), nil, nil)

	require.True(t, s.Write(context.Background(), map[string]any{"cell_index": 1, "rsrp": -90.0}))
	assert.Equal(t, "radio", w.points[0].Measurement)
}

func TestTimeSeriesSinkRejectsInvalidPayload(t *testing.T) {
	w := &fakePoints{}
	provider := &fakeProvider{svc: w}
	s := NewTimeSeriesSink(Config{}, rawSchema(), provider, quietLogger(t), nil, nil)

	assert.False(t, s.Write(context.Background(), map[string]any{"rsrp": -90.0}))
	assert.False(t, s.Write(context.Background(), map[string]any{"cell_index": "seven", "rsrp": -90.0}))
	assert.Empty(t, w.points)
	assert.Zero(t, provider.calls)
}

func TestTimeSeriesSinkBackendFailure(t *testing.T) {
	payload := map[string]any{"cell_index": 1, "rsrp": -90.0}

	s := NewTimeSeriesSink(Config{}, rawSchema(), &fakeProvider{err: services.ErrBackend}, quietLogger(t), nil, nil)
	assert.False(t, s.Write(context.Background(), payload))

	s = NewTimeSeriesSink(Config{}, rawSchema(), &fakeProvider{svc: &fakePoints{err: errors.New("down")}}, quietLogger(t), nil, nil)
	assert.False(t, s.Write(context.Background(), payload))

	s = NewTimeSeriesSink(Config{}, rawSchema(), &fakeProvider{svc: closer{}}, quietLogger(t), nil, nil)
	assert.False(t, s.Write(context.Background(), payload))
}

func TestTimeSeriesSinkWriteBatch(t *testing.T) {
	w := &fakePoints{}
	s := NewTimeSeriesSink(Config{}, rawSchema(), &fakeProvider{svc: w}, quietLogger(t), nil, nil)

	ok := s.WriteBatch(context.Background(), []map[string]any{
		{"cell_index": 1, "rsrp": -90.0},
		{"rsrp": -91.0},
		{"cell_index": 2, "rsrp": -92.0},
	})
	assert.False(t, ok)
	assert.Equal(t, 1, w.batches)
	assert.Len(t, w.points, 2)

	assert.True(t, s.WriteBatch(context.Background(), []map[string]any{{"cell_index": 3, "rsrp": -93.0}}))
	assert.Len(t, w.points, 3)
}

func window(samples int64) map[string]any {
	return map[string]any{
		"window_start": 1733828400.0,
		"window_end":   1733828460.0,
		"cell_index":   int64(42),
		"sample_count": samples,
		"network":      "5G",
		"mean_latency": map[string]any{"p50": 12.5, "p99": 80.0, "hist": []any{1, 2}},
		"unknown":      "dropped",
	}
}

func TestAnalyticalSinkWritesRow(t *testing.T) {
	w := &fakeRows{columns: aggregate.NewColumnSet(
		"window_start_time", "window_end_time", "window_duration_seconds",
		"cell_index", "sample_count", "network", "latency_p50", "latency_p99",
	)}
	s := NewAnalyticalSink(&fakeProvider{svc: w}, quietLogger(t), nil, nil)

	require.True(t, s.Write(context.Background(), window(10)))
	require.Len(t, w.rows, 1)

	row := w.rows[0]
	assert.Equal(t, 60.0, row["window_duration_seconds"])
	assert.Equal(t, 12.5, row["latency_p50"])
	assert.Equal(t, "5G", row["network"])
	assert.NotContains(t, row, "unknown")
	assert.NotContains(t, row, "latency_hist")
}

func TestAnalyticalSinkSkipsEmptyWindow(t *testing.T) {
	provider := &fakeProvider{err: errors.New("must not be called")}
	s := NewAnalyticalSink(provider, quietLogger(t), nil, nil)

	assert.True(t, s.Write(context.Background(), window(0)))
	assert.True(t, s.WriteBatch(context.Background(), []map[string]any{window(0), window(0)}))
	assert.Zero(t, provider.calls)
}

func TestAnalyticalSinkRejectsInvalidWindow(t *testing.T) {
	w := &fakeRows{columns: aggregate.NewColumnSet("cell_index")}
	s := NewAnalyticalSink(&fakeProvider{svc: w}, quietLogger(t), nil, nil)

	missing := window(5)
	delete(missing, "window_end")
	assert.False(t, s.Write(context.Background(), missing))

	bad := window(5)
	bad["window_start"] = "yesterday"
	assert.False(t, s.Write(context.Background(), bad))
	assert.Empty(t, w.rows)
}

func TestAnalyticalSinkBackendFailure(t *testing.T) {
	w := &fakeRows{columns: aggregate.NewColumnSet("cell_index"), err: errors.New("down")}
	s := NewAnalyticalSink(&fakeProvider{svc: w}, quietLogger(t), nil, nil)
	assert.False(t, s.Write(context.Background(), window(3)))

	s = NewAnalyticalSink(&fakeProvider{err: services.ErrBackend}, quietLogger(t), nil, nil)
	assert.False(t, s.Write(context.Background(), window(3)))
}

func TestAnalyticalSinkWriteBatch(t *testing.T) {
	w := &fakeRows{columns: aggregate.NewColumnSet("cell_index", "sample_count")}
	s := NewAnalyticalSink(&fakeProvider{svc: w}, quietLogger(t), nil, nil)

	invalid := window(4)
	delete(invalid, "cell_index")

	assert.False(t, s.WriteBatch(context.Background(), []map[string]any{window(1), window(0), invalid, window(2)}))
	assert.Equal(t, 1, w.batches)
	require.Len(t, w.rows, 2)
	assert.Equal(t, int64(1), w.rows[0]["sample_count"])

	assert.True(t, s.WriteBatch(context.Background(), []map[string]any{window(0), window(9)}))
	assert.Len(t, w.rows, 3)
}

func TestMLflowSinkLogsNumbers(t *testing.T) {
	w := &fakeRuns{}
	s := NewMLflowSink(&fakeProvider{svc: w}, quietLogger(t), nil, nil)

	ok := s.Write(context.Background(), map[string]any{
		"timestamp":    "2024-12-08T19:00:00Z",
		"cell_index":   int64(7),
		"operator":     "acme",
		"roaming":      true,
		"mean_latency": map[string]any{"mean": 20.5, "label": "ms"},
		"rsrp dBm!":    -85.5,
	})
	require.True(t, ok)
	require.Len(t, w.runs, 1)

	ts := int64(1733684400000)
	assert.Equal(t, []mlflow.Metric{
		{Key: "cell_index", Value: 7, Timestamp: ts},
		{Key: "mean_latency_mean", Value: 20.5, Timestamp: ts},
		{Key: "rsrp dBm_", Value: -85.5, Timestamp: ts},
	}, w.runs[0])
}

func TestMLflowSinkWriteBatch(t *testing.T) {
	w := &fakeRuns{}
	s := NewMLflowSink(&fakeProvider{svc: w}, quietLogger(t), nil, nil)

	ok := s.WriteBatch(context.Background(), []map[string]any{
		{"rsrp": -80.0},
		{"operator": "acme"},
		{"rsrp": -90.0},
	})
	assert.False(t, ok)
	require.Len(t, w.runs, 1)
	assert.Equal(t, []mlflow.Metric{
		{Key: "rsrp", Value: -80, Step: 0},
		{Key: "rsrp", Value: -90, Step: 2},
	}, w.runs[0])
}

func TestMLflowSinkRejectsPayloadWithoutNumbers(t *testing.T) {
	p := &fakeProvider{svc: &fakeRuns{}}
	s := NewMLflowSink(p, quietLogger(t), nil, nil)

	assert.False(t, s.Write(context.Background(), map[string]any{"operator": "acme"}))
	assert.Zero(t, p.calls)
}

func TestMLflowSinkBackendFailure(t *testing.T) {
	s := NewMLflowSink(&fakeProvider{svc: &fakeRuns{err: errors.New("503")}}, quietLogger(t), nil, nil)
	assert.False(t, s.Write(context.Background(), map[string]any{"rsrp": 1.0}))

	s = NewMLflowSink(&fakeProvider{svc: closer{}}, quietLogger(t), nil, nil)
	assert.False(t, s.Write(context.Background(), map[string]any{"rsrp": 1.0}))
}

func TestReason(t *testing.T) {
	assert.Equal(t, "no_metrics", reason(ErrNoMetrics))
	assert.Equal(t, "missing_required_field", reason(&aggregate.MissingRequiredFieldError{Field: "cell_index"}))
	assert.Equal(t, "invalid_window", reason(aggregate.ErrInvalidWindow))
	assert.Equal(t, "invalid", reason(errors.New("x")))
}
