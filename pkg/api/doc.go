// Package api serves read queries over the time-series and analytical backends.
//
// Routes:
//
//	GET /v1/raw?start_time&end_time[&cell_index][&offset][&limit]
//	GET /v1/cell
//	GET /v1/processed/latency?start_time&end_time&cell_index[&window_duration_seconds][&offset][&limit]
//	GET /v1/processed/example
//	GET /healthz
//
// Times are RFC 3339 or Unix seconds. offset must be >= 0 and limit within 1..1000
// (default 100). Bad parameters answer 400 and backend failures 500, both with a JSON
// body of the form {"error": "...", "status": N}.
package api
