package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/aggregate"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
)

// ErrNoColumns is returned by Connect when the destination table has no columns, which
// in practice means it does not exist.
var ErrNoColumns = errors.New("destination table has no columns")

// Logger defines the logging surface of the analytical clients.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=analytics
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
}

// Connect opens the store selected by cfg.Driver and caches its column set.
func Connect(ctx context.Context, cfg Config, logger Logger) (Client, error) {
	cfg = cfg.withDefaults()

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	var (
		client Client
		err    error
	)
	switch cfg.Driver {
	case DriverPostgres:
		client, err = connectPostgres(connectCtx, cfg, logger)
	case DriverDuckDB:
		client, err = connectDuckDB(connectCtx, cfg, logger)
	default:
		err = fmt.Errorf("unsupported analytics driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewBinding registers Connect as the analytical service connector.
func NewBinding(cfg Config, logger Logger) services.Binding {
	return services.Binding{
		Kind: services.Analytical,
		Connector: func(ctx context.Context) (services.Service, error) {
			return Connect(ctx, cfg, logger)
		},
	}
}

func columnSet(table string, names []string) (aggregate.ColumnSet, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoColumns, table)
	}
	return aggregate.NewColumnSet(names...), nil
}

// sortedKeys returns the row's column names in a stable order for statement building.
func sortedKeys(row aggregate.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
