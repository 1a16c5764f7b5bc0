package analytics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/aggregate"
)

const createPostgresTable = `CREATE TABLE processed_latency (
	window_start_time       TIMESTAMPTZ,
	window_end_time         TIMESTAMPTZ,
	window_duration_seconds DOUBLE PRECISION,
	cell_index              BIGINT,
	sample_count            BIGINT,
	rsrp_mean               DOUBLE PRECISION,
	rsrp_max                DOUBLE PRECISION,
	latency_mean            DOUBLE PRECISION
)`

func setupPostgresContainer(ctx context.Context, t *testing.T) Config {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image: "postgres:15",
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = nat.PortMap{"5432/tcp": []nat.PortBinding{{HostPort: "0"}}}
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := Config{
		Driver:   DriverPostgres,
		Host:     host,
		Port:     port.Port(),
		User:     "testuser",
		Password: "testpass",
		DbName:   "testdb",
	}.withDefaults()

	db, err := sql.Open("postgres", cfg.dsn())
	require.NoError(t, err)
	defer db.Close()
	require.Eventually(t, func() bool { return db.PingContext(ctx) == nil }, 30*time.Second, 500*time.Millisecond)
	_, err = db.ExecContext(ctx, createPostgresTable)
	require.NoError(t, err)

	return cfg
}

func TestPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := setupPostgresContainer(ctx, t)

	client, err := Connect(ctx, cfg, quietLogger(t))
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	assert.Equal(t, aggregate.NewColumnSet(
		"window_start_time", "window_end_time", "window_duration_seconds",
		"cell_index", "sample_count", "rsrp_mean", "rsrp_max", "latency_mean",
	), client.Columns())

	tr := aggregate.NewTransformer()
	var rows []aggregate.Row
	for i := int64(0); i < 3; i++ {
		row, err := tr.Flatten(map[string]any{
			"window_start": 1733684400 + 10*i,
			"window_end":   1733684410 + 10*i,
			"cell_index":   int64(7),
			"sample_count": int64(50),
			"rsrp":         map[string]any{"mean": -85.0 - float64(i), "max": -80.0, "p50": -84.0},
			"unexpected":   "dropped",
		}, client.Columns())
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.NoError(t, client.InsertRow(ctx, rows[0]))
	require.NoError(t, client.InsertRows(ctx, rows[1:]))

	got, err := client.QueryProcessed(ctx, ProcessedQuery{
		Start:     time.Unix(1733684400, 0),
		End:       time.Unix(1733684500, 0),
		CellIndex: 7,
		Offset:    1,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, -86.0, got[0]["rsrp_mean"])
}

func TestPostgresMissingTable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := setupPostgresContainer(ctx, t)
	cfg.Table = "does_not_exist"

	_, err := Connect(ctx, cfg, quietLogger(t))
	require.Error(t, err)
}
