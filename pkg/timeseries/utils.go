package timeseries

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/record"
)

// RawQuery selects raw points newest first.
type RawQuery struct {
	Start     time.Time
	End       time.Time
	CellIndex string // empty matches every cell
	Offset    int
	Limit     int
}

// RawRow is one stored point as returned by QueryRaw.
type RawRow struct {
	Time        time.Time         `json:"time"`
	Measurement string            `json:"measurement"`
	Tags        map[string]string `json:"tags"`
	Fields      map[string]any    `json:"fields"`
}

func (c *Client) insertSQL() string {
	return fmt.Sprintf("INSERT INTO %s (time, measurement, tags, fields) VALUES ($1, $2, $3, $4)", c.table)
}

// WritePoint stores one point.
func (c *Client) WritePoint(ctx context.Context, p record.Point) error {
	if _, err := c.pool.Exec(ctx, c.insertSQL(), p.Timestamp, p.Measurement, p.TagMap(), p.Fields); err != nil {
		return fmt.Errorf("writing point: %w", err)
	}
	return nil
}

// WritePoints stores points in one batch round trip.
func (c *Client) WritePoints(ctx context.Context, points []record.Point) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	stmt := c.insertSQL()
	for _, p := range points {
		batch.Queue(stmt, p.Timestamp, p.Measurement, p.TagMap(), p.Fields)
	}

	results := c.pool.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			c.logger.Error("closing timeseries batch", err, nil)
		}
	}()

	for i := range points {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("writing point %d of %d: %w", i+1, len(points), err)
		}
	}
	c.logger.Debug("timeseries batch written", nil, map[string]interface{}{"points": len(points)})
	return nil
}

// QueryRaw returns stored points in [q.Start, q.End), newest first.
func (c *Client) QueryRaw(ctx context.Context, q RawQuery) ([]RawRow, error) {
	sql := fmt.Sprintf(`SELECT time, measurement, tags, fields FROM %s
WHERE time >= $1 AND time < $2 AND ($3 = '' OR tags->>'cell_index' = $3)
ORDER BY time DESC
OFFSET $4 LIMIT $5`, c.table)

	rows, err := c.pool.Query(ctx, sql, q.Start, q.End, q.CellIndex, q.Offset, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("querying raw points: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (RawRow, error) {
		var r RawRow
		err := row.Scan(&r.Time, &r.Measurement, &r.Tags, &r.Fields)
		r.Time = r.Time.UTC()
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning raw points: %w", err)
	}
	return out, nil
}

// KnownCells returns the distinct cell_index tags seen so far, sorted.
func (c *Client) KnownCells(ctx context.Context) ([]string, error) {
	sql := fmt.Sprintf(`SELECT DISTINCT tags->>'cell_index' AS cell FROM %s
WHERE tags->>'cell_index' IS NOT NULL
ORDER BY cell`, c.table)

	rows, err := c.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("querying cells: %w", err)
	}
	cells, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning cells: %w", err)
	}
	return cells, nil
}
