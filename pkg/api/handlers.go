package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/aggregate"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/analytics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/timeseries"
)

// Services is the view of the service registry used by the handlers.
// *services.Registry implements it.
type Services interface {
	GetService(ctx context.Context, kind services.Kind) (services.Service, error)
	Kinds() []services.Kind
	State(kind services.Kind) services.State
}

// RawStore is the read side of the time-series backend.
type RawStore interface {
	QueryRaw(ctx context.Context, q timeseries.RawQuery) ([]timeseries.RawRow, error)
	KnownCells(ctx context.Context) ([]string, error)
}

// ProcessedStore is the read side of the analytical backend.
type ProcessedStore interface {
	Columns() aggregate.ColumnSet
	QueryProcessed(ctx context.Context, q analytics.ProcessedQuery) ([]map[string]any, error)
}

// Example values for /v1/processed/example.
const (
	exampleTime = 1733828400
)

// RawResponse is the body of /v1/raw.
type RawResponse struct {
	Data    []timeseries.RawRow `json:"data"`
	HasNext bool                `json:"has_next"`
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// RegisterHTTPHandlers registers every route on mux.
func (s *Server) RegisterHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/raw", s.handleRaw)
	mux.HandleFunc("GET /v1/cell", s.handleCells)
	mux.HandleFunc("GET /v1/processed/latency", s.handleProcessedLatency)
	mux.HandleFunc("GET /v1/processed/example", s.handleProcessedExample)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := parseRange(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, limit, err := parsePage(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cell := q.Get("cell_index")
	if cell != "" {
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "cell_index must be an integer")
			return
		}
	}

	store, ok := backend[RawStore](s, w, r, services.TimeSeries)
	if !ok {
		return
	}
	rows, err := store.QueryRaw(r.Context(), timeseries.RawQuery{
		Start:     start,
		End:       end,
		CellIndex: cell,
		Offset:    offset,
		Limit:     limit + 1,
	})
	if err != nil {
		s.fail(w, "querying raw data", err)
		return
	}

	resp := RawResponse{Data: rows}
	if len(rows) > limit {
		resp.Data = rows[:limit]
		resp.HasNext = true
	}
	if resp.Data == nil {
		resp.Data = []timeseries.RawRow{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCells(w http.ResponseWriter, r *http.Request) {
	store, ok := backend[RawStore](s, w, r, services.TimeSeries)
	if !ok {
		return
	}
	tags, err := store.KnownCells(r.Context())
	if err != nil {
		s.fail(w, "querying known cells", err)
		return
	}

	cells := make([]int64, 0, len(tags))
	for _, t := range tags {
		if c, err := strconv.ParseInt(t, 10, 64); err == nil {
			cells = append(cells, c)
		}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
	writeJSON(w, http.StatusOK, cells)
}

func (s *Server) handleProcessedLatency(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := parseRange(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, limit, err := parsePage(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cell, err := strconv.ParseInt(q.Get("cell_index"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cell_index is required and must be an integer")
		return
	}
	var duration float64
	if v := q.Get("window_duration_seconds"); v != "" {
		duration, err = strconv.ParseFloat(v, 64)
		if err != nil || duration < 0 {
			writeError(w, http.StatusBadRequest, "window_duration_seconds must be a non-negative number")
			return
		}
	}

	store, ok := backend[ProcessedStore](s, w, r, services.Analytical)
	if !ok {
		return
	}
	rows, err := store.QueryProcessed(r.Context(), analytics.ProcessedQuery{
		Start:                 start,
		End:                   end,
		CellIndex:             cell,
		WindowDurationSeconds: duration,
		Offset:                offset,
		Limit:                 limit,
	})
	if err != nil {
		s.fail(w, "querying processed latency", err)
		return
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleProcessedExample(w http.ResponseWriter, r *http.Request) {
	store, ok := backend[ProcessedStore](s, w, r, services.Analytical)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, []map[string]any{exampleRow(store.Columns())})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok", Services: map[string]string{}}
	for _, kind := range s.services.Kinds() {
		state := s.services.State(kind)
		resp.Services[string(kind)] = state.String()
		if state != services.Ready {
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// exampleRow gives every destination column a placeholder of its likely type.
func exampleRow(columns aggregate.ColumnSet) map[string]any {
	row := make(map[string]any, len(columns))
	for col := range columns {
		switch {
		case strings.Contains(strings.ToLower(col), "time"):
			row[col] = exampleTime
		case col == aggregate.FieldCellIndex, col == aggregate.FieldSampleCount:
			row[col] = 0
		case col == "network", col == "data_type":
			row[col] = ""
		default:
			row[col] = 0.0
		}
	}
	return row
}

// backend fetches the handle for kind and asserts it to T, answering 500 on failure.
func backend[T any](s *Server, w http.ResponseWriter, r *http.Request, kind services.Kind) (T, bool) {
	var zero T
	svc, err := s.services.GetService(r.Context(), kind)
	if err != nil {
		s.fail(w, fmt.Sprintf("connecting %s backend", kind), err)
		return zero, false
	}
	store, ok := svc.(T)
	if !ok {
		s.fail(w, fmt.Sprintf("%s backend", kind), fmt.Errorf("service %T does not support queries", svc))
		return zero, false
	}
	return store, true
}

func (s *Server) fail(w http.ResponseWriter, what string, err error) {
	s.logger.Error(what+" failed", err, nil)
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s failed: %v", what, err))
}
