package sink

import (
	"context"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/aggregate"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/mlflow"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/record"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
)

// ServiceProvider hands out connected backend handles. *services.Registry implements it.
type ServiceProvider interface {
	GetService(ctx context.Context, kind services.Kind) (services.Service, error)
}

// SchemaSource returns the schema in effect. *schema.Registry implements it.
type SchemaSource interface {
	Snapshot() *schema.Snapshot
}

// PointWriter is the time-series backend as seen by the sink.
type PointWriter interface {
	WritePoint(ctx context.Context, p record.Point) error
	WritePoints(ctx context.Context, points []record.Point) error
}

// RowWriter is the analytical backend as seen by the sink.
type RowWriter interface {
	Columns() aggregate.ColumnSet
	InsertRow(ctx context.Context, row aggregate.Row) error
	InsertRows(ctx context.Context, rows []aggregate.Row) error
}

// RunLogger is the experiment-tracking backend as seen by the sink.
type RunLogger interface {
	LogRun(ctx context.Context, metrics []mlflow.Metric) (string, error)
}
