// Package timeseries stores raw telemetry points in TimescaleDB using pgx.
//
// Points are kept in a single pre-provisioned table with JSONB tag and field columns, so
// schema changes never require DDL here. The client is obtained from the service
// registry rather than constructed directly:
//
//	ts, err := services.Get[*timeseries.Client](ctx, reg, services.TimeSeries)
//	err = ts.WritePoint(ctx, point)
package timeseries
