package timeseries

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
)

// Logger defines the logging surface of the time-series client.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=timeseries
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Client writes points to and reads them from the point table. It is safe for
// concurrent use; pgxpool hands each call its own connection.
type Client struct {
	pool   *pgxpool.Pool
	table  string
	logger Logger
}

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config, logger Logger) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("parsing timeseries connection config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	if poolCfg.MaxConns <= 0 {
		poolCfg.MaxConns = DefaultMaxConns
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating timeseries pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging timeseries database: %w", err)
	}

	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}

	logger.Info("Successfully connected to timeseries database", nil, map[string]interface{}{
		"host":  cfg.Host,
		"table": table,
	})

	return &Client{
		pool:   pool,
		table:  pgxIdent(table),
		logger: logger,
	}, nil
}

// NewBinding registers Connect as the time-series service connector.
func NewBinding(cfg Config, logger Logger) services.Binding {
	return services.Binding{
		Kind: services.TimeSeries,
		Connector: func(ctx context.Context) (services.Service, error) {
			client, err := Connect(ctx, cfg, logger)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

// Close releases every pooled connection.
func (c *Client) Close() error {
	c.pool.Close()
	c.logger.Info("timeseries pool closed", nil, nil)
	return nil
}

func pgxIdent(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}
