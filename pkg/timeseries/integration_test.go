package timeseries

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/record"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
)

const createPointsTable = `CREATE TABLE raw_points (
	time        TIMESTAMPTZ NOT NULL,
	measurement TEXT        NOT NULL,
	tags        JSONB       NOT NULL,
	fields      JSONB       NOT NULL
)`

// setupTimescaleContainer starts a TimescaleDB container and provisions the point table.
func setupTimescaleContainer(ctx context.Context, t *testing.T) Config {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image: "timescale/timescaledb:latest-pg16",
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
			WithStartupTimeout(60 * time.Second),
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
		Host:     host,
		Port:     port.Port(),
		User:     "testuser",
		Password: "testpass",
		DbName:   "testdb",
		SSLMode:  "disable",
	}

	db, err := sql.Open("postgres", cfg.dsn())
	require.NoError(t, err)
	defer db.Close()

	require.Eventually(t, func() bool { return db.PingContext(ctx) == nil }, 30*time.Second, 500*time.Millisecond)
	_, err = db.ExecContext(ctx, createPointsTable)
	require.NoError(t, err)

	return cfg
}

func TestClientIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := setupTimescaleContainer(ctx, t)

	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Debug(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	reg := services.NewRegistry(noopRegistryLogger{}, nil)
	require.NoError(t, reg.Register(NewBinding(cfg, log)))
	defer func() { _ = reg.ShutdownAll() }()

	client, err := services.Get[*Client](ctx, reg, services.TimeSeries)
	require.NoError(t, err)

	snap := schema.NewSnapshot(
		map[string]schema.Kind{"cell_index": schema.Integer, "rsrp": schema.Float},
		map[string]schema.Kind{"timestamp": schema.Datetime},
		[]string{"cell_index"},
	)

	base := time.Date(2024, 12, 8, 19, 0, 0, 0, time.UTC)
	var points []record.Point
	for i := 0; i < 3; i++ {
		rec, err := record.Build(map[string]any{
			"cell_index": 100 + i%2,
			"rsrp":       -80.0 - float64(i),
			"timestamp":  base.Add(time.Duration(i) * time.Minute),
		}, snap)
		require.NoError(t, err)
		points = append(points, record.ToPoint(rec, record.DefaultMeasurement))
	}

	require.NoError(t, client.WritePoint(ctx, points[0]))
	require.NoError(t, client.WritePoints(ctx, points[1:]))

	rows, err := client.QueryRaw(ctx, RawQuery{Start: base, End: base.Add(time.Hour), Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Time.After(rows[2].Time))
	assert.Equal(t, "raw", rows[0].Measurement)
	assert.Equal(t, -82.0, rows[0].Fields["rsrp"])

	rows, err = client.QueryRaw(ctx, RawQuery{Start: base, End: base.Add(time.Hour), CellIndex: "101", Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "101", rows[0].Tags["cell_index"])

	rows, err = client.QueryRaw(ctx, RawQuery{Start: base, End: base.Add(time.Hour), Offset: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	cells, err := client.KnownCells(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "101"}, cells)
}

func TestConnectFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)

	_, err := Connect(context.Background(), Config{
		Host:           "127.0.0.1",
		Port:           "1",
		User:           "nobody",
		DbName:         "none",
		ConnectTimeout: time.Second,
	}, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeseries")
}

type noopRegistryLogger struct{}

func (noopRegistryLogger) Info(string, error, ...map[string]interface{})  {}
func (noopRegistryLogger) Warn(string, error, ...map[string]interface{})  {}
func (noopRegistryLogger) Error(string, error, ...map[string]interface{}) {}

func TestDSN(t *testing.T) {
	cfg := Config{Host: "h", Port: "5432", User: "u", Password: "p", DbName: "d"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", cfg.dsn())
	assert.Equal(t, fmt.Sprintf("%q", "raw_points"), pgxIdent(DefaultTable))
}
