package analytics

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/aggregate"
)

// gormClient stores rows in PostgreSQL through gorm.
type gormClient struct {
	db      *gorm.DB
	table   string
	columns aggregate.ColumnSet
	logger  Logger
}

func connectPostgres(ctx context.Context, cfg Config, logger Logger) (*gormClient, error) {
	db, err := gorm.Open(postgres.Open(cfg.dsn()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to analytical database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get analytical database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging analytical database: %w", err)
	}

	types, err := db.WithContext(ctx).Migrator().ColumnTypes(cfg.Table)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("reading columns of %s: %w", cfg.Table, err)
	}
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name())
	}
	columns, err := columnSet(cfg.Table, names)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("Successfully connected to analytical database", nil, map[string]interface{}{
		"driver":  DriverPostgres,
		"table":   cfg.Table,
		"columns": len(columns),
	})

	return &gormClient{db: db, table: cfg.Table, columns: columns, logger: logger}, nil
}

func (c *gormClient) Columns() aggregate.ColumnSet { return c.columns }

func (c *gormClient) InsertRow(ctx context.Context, row aggregate.Row) error {
	if len(row) == 0 {
		return nil
	}
	if err := c.db.WithContext(ctx).Table(c.table).Create(map[string]interface{}(row)).Error; err != nil {
		return fmt.Errorf("inserting row into %s: %w", c.table, err)
	}
	return nil
}

func (c *gormClient) InsertRows(ctx context.Context, rows []aggregate.Row) error {
	batch := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 {
			batch = append(batch, r)
		}
	}
	if len(batch) == 0 {
		return nil
	}
	if err := c.db.WithContext(ctx).Table(c.table).Create(&batch).Error; err != nil {
		return fmt.Errorf("inserting %d rows into %s: %w", len(batch), c.table, err)
	}
	c.logger.Debug("analytical batch written", nil, map[string]interface{}{"rows": len(batch)})
	return nil
}

func (c *gormClient) QueryProcessed(ctx context.Context, q ProcessedQuery) ([]map[string]any, error) {
	tx := c.db.WithContext(ctx).Table(c.table).
		Where("window_start_time >= ? AND window_end_time <= ? AND cell_index = ?", q.Start, q.End, q.CellIndex)
	if q.WindowDurationSeconds > 0 {
		tx = tx.Where("window_duration_seconds = ?", q.WindowDurationSeconds)
	}

	var out []map[string]any
	err := tx.Order("window_start_time DESC").Offset(q.Offset).Limit(q.Limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.table, err)
	}
	return out, nil
}

func (c *gormClient) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	c.logger.Info("analytical database connection closed", nil, map[string]interface{}{"driver": DriverPostgres})
	return sqlDB.Close()
}
