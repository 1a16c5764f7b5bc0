package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/aggregate"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/analytics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/timeseries"
)

type fakeServices struct {
	handles map[services.Kind]services.Service
	states  map[services.Kind]services.State
	err     error
}

func (f *fakeServices) GetService(_ context.Context, kind services.Kind) (services.Service, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.handles[kind], nil
}

func (f *fakeServices) Kinds() []services.Kind {
	return []services.Kind{services.Analytical, services.TimeSeries}
}

func (f *fakeServices) State(kind services.Kind) services.State { return f.states[kind] }

type fakeRaw struct {
	rows  []timeseries.RawRow
	cells []string
	last  timeseries.RawQuery
	err   error
}

func (f *fakeRaw) QueryRaw(_ context.Context, q timeseries.RawQuery) ([]timeseries.RawRow, error) {
	f.last = q
	return f.rows, f.err
}

func (f *fakeRaw) KnownCells(context.Context) ([]string, error) { return f.cells, f.err }

func (f *fakeRaw) Close() error { return nil }

type fakeProcessed struct {
	columns aggregate.ColumnSet
	rows    []map[string]any
	last    analytics.ProcessedQuery
	err     error
}

func (f *fakeProcessed) Columns() aggregate.ColumnSet { return f.columns }

func (f *fakeProcessed) QueryProcessed(_ context.Context, q analytics.ProcessedQuery) ([]map[string]any, error) {
	f.last = q
	return f.rows, f.err
}

func (f *fakeProcessed) Close() error { return nil }

func newTestServer(t *testing.T, svc Services) *Server {
	ctrl := gomock.NewController(t)
	l := NewMockLogger(ctrl)
	l.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Error(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	return NewServer(Config{}, svc, l)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRawQuery(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := &fakeRaw{rows: []timeseries.RawRow{
		{Time: now, Measurement: "raw", Tags: map[string]string{"cell_index": "7"}},
		{Time: now.Add(-time.Second), Measurement: "raw"},
		{Time: now.Add(-2 * time.Second), Measurement: "raw"},
	}}
	s := newTestServer(t, &fakeServices{handles: map[services.Kind]services.Service{services.TimeSeries: raw}})

	rec := get(t, s, "/v1/raw?start_time=1735600000&end_time=2025-01-02T00:00:00Z&cell_index=7&offset=4&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body RawResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.True(t, body.HasNext)

	assert.Equal(t, time.Unix(1735600000, 0).UTC(), raw.last.Start)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), raw.last.End)
	assert.Equal(t, "7", raw.last.CellIndex)
	assert.Equal(t, 4, raw.last.Offset)
	assert.Equal(t, 3, raw.last.Limit)
}

func TestRawQueryEmptyResult(t *testing.T) {
	s := newTestServer(t, &fakeServices{handles: map[services.Kind]services.Service{services.TimeSeries: &fakeRaw{}}})

	rec := get(t, s, "/v1/raw?start_time=0&end_time=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data": [], "has_next": false}`, rec.Body.String())
}

func TestBadParameters(t *testing.T) {
	s := newTestServer(t, &fakeServices{handles: map[services.Kind]services.Service{
		services.TimeSeries: &fakeRaw{},
		services.Analytical: &fakeProcessed{},
	}})

	for _, target := range []string{
		"/v1/raw",
		"/v1/raw?start_time=abc&end_time=10",
		"/v1/raw?start_time=10&end_time=5",
		"/v1/raw?start_time=0&end_time=10&offset=-1",
		"/v1/raw?start_time=0&end_time=10&limit=0",
		"/v1/raw?start_time=0&end_time=10&limit=1001",
		"/v1/raw?start_time=0&end_time=10&cell_index=x",
		"/v1/processed/latency?start_time=0&end_time=10",
		"/v1/processed/latency?start_time=0&end_time=10&cell_index=1&window_duration_seconds=-5",
	} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, s, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, float64(http.StatusBadRequest), body["status"])
		})
	}
}

func TestBackendFailures(t *testing.T) {
	s := newTestServer(t, &fakeServices{err: services.ErrBackend})
	assert.Equal(t, http.StatusInternalServerError, get(t, s, "/v1/cell").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, s, "/v1/processed/example").Code)

	s = newTestServer(t, &fakeServices{handles: map[services.Kind]services.Service{
		services.TimeSeries: &fakeRaw{err: errors.New("timeout")},
		services.Analytical: &fakeRaw{},
	}})
	assert.Equal(t, http.StatusInternalServerError, get(t, s, "/v1/raw?start_time=0&end_time=1").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, s, "/v1/processed/example").Code)
}

func TestKnownCells(t *testing.T) {
	raw := &fakeRaw{cells: []string{"12", "3", "bogus", "100"}}
	s := newTestServer(t, &fakeServices{handles: map[services.Kind]services.Service{services.TimeSeries: raw}})

	rec := get(t, s, "/v1/cell")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[3, 12, 100]`, rec.Body.String())
}

func TestProcessedLatency(t *testing.T) {
	store := &fakeProcessed{rows: []map[string]any{{"cell_index": 5, "latency_mean": 20.0}}}
	s := newTestServer(t, &fakeServices{handles: map[services.Kind]services.Service{services.Analytical: store}})

	rec := get(t, s, "/v1/processed/latency?start_time=100&end_time=200&cell_index=5&window_duration_seconds=300")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"cell_index": 5, "latency_mean": 20.0}]`, rec.Body.String())

	assert.Equal(t, int64(5), store.last.CellIndex)
	assert.Equal(t, 300.0, store.last.WindowDurationSeconds)
	assert.Equal(t, DefaultLimit, store.last.Limit)
	assert.Zero(t, store.last.Offset)
}

func TestProcessedExample(t *testing.T) {
	store := &fakeProcessed{columns: aggregate.NewColumnSet(
		"window_start_time", "window_duration_seconds", "cell_index", "sample_count", "network", "rsrp_mean",
	)}
	s := newTestServer(t, &fakeServices{handles: map[services.Kind]services.Service{services.Analytical: store}})

	rec := get(t, s, "/v1/processed/example")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{
		"window_start_time": 1733828400,
		"window_duration_seconds": 0.0,
		"cell_index": 0,
		"sample_count": 0,
		"network": "",
		"rsrp_mean": 0.0
	}]`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeServices{states: map[services.Kind]services.State{
		services.TimeSeries: services.Ready,
		services.Analytical: services.Uninitialized,
	}})

	rec := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, services.Ready.String(), body.Services["timeseries"])
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakeServices{})
	req := httptest.NewRequest(http.MethodPost, "/v1/cell", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("1733684400.5")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1733684400, 500_000_000).UTC(), got)

	_, err = parseTime("NaN")
	assert.Error(t, err)
}
