package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/aggregate"
)

// duckClient stores rows in an embedded DuckDB database.
type duckClient struct {
	db      *sql.DB
	table   string
	columns aggregate.ColumnSet
	logger  Logger
}

func connectDuckDB(ctx context.Context, cfg Config, logger Logger) (*duckClient, error) {
	db, err := sql.Open("duckdb", cfg.DuckDBPath)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	names, err := duckColumns(ctx, db, cfg.Table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	columns, err := columnSet(cfg.Table, names)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Successfully opened analytical database", nil, map[string]interface{}{
		"driver":  DriverDuckDB,
		"path":    cfg.DuckDBPath,
		"table":   cfg.Table,
		"columns": len(columns),
	})

	return &duckClient{db: db, table: cfg.Table, columns: columns, logger: logger}, nil
}

func duckColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	query := `SELECT column_name FROM information_schema.columns WHERE table_name = ?`
	args := []any{table}
	if schemaName, name, ok := strings.Cut(table, "."); ok {
		query += ` AND table_schema = ?`
		args = []any{name, schemaName}
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (c *duckClient) Columns() aggregate.ColumnSet { return c.columns }

func (c *duckClient) InsertRow(ctx context.Context, row aggregate.Row) error {
	if len(row) == 0 {
		return nil
	}
	stmt, args := c.insertStatement(row)
	if _, err := c.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("inserting row into %s: %w", c.table, err)
	}
	return nil
}

func (c *duckClient) InsertRows(ctx context.Context, rows []aggregate.Row) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	written := 0
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		stmt, args := c.insertStatement(row)
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting rows into %s: %w", c.table, err)
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	c.logger.Debug("analytical batch written", nil, map[string]interface{}{"rows": written})
	return nil
}

func (c *duckClient) insertStatement(row aggregate.Row) (string, []any) {
	keys := sortedKeys(row)
	cols := make([]string, len(keys))
	marks := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = quoteIdent(k)
		marks[i] = "?"
		args[i] = row[k]
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteTable(c.table), strings.Join(cols, ", "), strings.Join(marks, ", ")), args
}

func (c *duckClient) QueryProcessed(ctx context.Context, q ProcessedQuery) ([]map[string]any, error) {
	query := fmt.Sprintf(`SELECT * FROM %s
WHERE window_start_time >= ? AND window_end_time <= ? AND cell_index = ?`, quoteTable(c.table))
	args := []any{q.Start, q.End, q.CellIndex}
	if q.WindowDurationSeconds > 0 {
		query += ` AND window_duration_seconds = ?`
		args = append(args, q.WindowDurationSeconds)
	}
	query += ` ORDER BY window_start_time DESC LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", c.table, err)
		}
		m := make(map[string]any, len(names))
		for i, n := range names {
			m[n] = values[i]
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *duckClient) Close() error {
	c.logger.Info("analytical database closed", nil, map[string]interface{}{"driver": DriverDuckDB})
	return c.db.Close()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}
