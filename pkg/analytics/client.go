package analytics

import (
	"context"
	"time"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/aggregate"
)

// Client is a connected analytical store.
type Client interface {
	// Columns returns the destination column set discovered at connect time.
	Columns() aggregate.ColumnSet
	InsertRow(ctx context.Context, row aggregate.Row) error
	InsertRows(ctx context.Context, rows []aggregate.Row) error
	QueryProcessed(ctx context.Context, q ProcessedQuery) ([]map[string]any, error)
	Close() error
}

// ProcessedQuery selects windows of one cell, newest first.
type ProcessedQuery struct {
	Start     time.Time
	End       time.Time
	CellIndex int64
	// WindowDurationSeconds restricts the window length; zero matches any.
	WindowDurationSeconds float64
	Offset                int
	Limit                 int
}
