package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/analytics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/bus"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/kafka"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/router"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, bus.KindKafka, cfg.Bus.Kind)
	assert.Equal(t, router.DefaultRawTopic, cfg.Router.RawTopic)
	assert.Equal(t, ":8000", cfg.API.Address)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
bus:
  kind: rabbit
rabbit:
  connection:
    host: mq.internal
router:
  processed_topic: aggregates
  stop_timeout: 3s
analytics:
  driver: duckdb
  duckdb_path: /tmp/a.duckdb
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, bus.KindRabbit, cfg.Bus.Kind)
	assert.Equal(t, "mq.internal", cfg.Rabbit.Connection.Host)
	assert.Equal(t, uint(5672), cfg.Rabbit.Connection.Port)
	assert.Equal(t, "aggregates", cfg.Router.ProcessedTopic)
	assert.Equal(t, router.DefaultRawTopic, cfg.Router.RawTopic)
	assert.Equal(t, 3*time.Second, cfg.Router.StopTimeout)
	assert.Equal(t, analytics.DriverDuckDB, cfg.Analytics.Driver)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, `
kafka:
  brokers: ["file:9092"]
  workers: 2
`)
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("KAFKA_TLS_ENABLED", "true")
	t.Setenv("LOGGER_LEVEL", "debug")
	t.Setenv("ROUTER_PAYLOAD_FORMAT", "protobuf")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2, cfg.Kafka.Workers)
	assert.True(t, cfg.Kafka.TLS.Enabled)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, router.FormatProtobuf, cfg.Router.PayloadFormat)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "kafka:\n  brokerz: [x]\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bus:\n  kind: nats\n"))
	assert.ErrorContains(t, err, "bus.kind")
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Kafka.Brokers = nil
	cfg.Analytics.Driver = "clickhouse"
	cfg.Router.PayloadFormat = "xml"
	cfg.Router.ProcessedTopic = cfg.Router.RawTopic

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "kafka.brokers")
	assert.ErrorContains(t, err, "analytics.driver")
	assert.ErrorContains(t, err, "router.payload_format")
	assert.ErrorContains(t, err, "must differ")
}

func TestValidateMLflowTopic(t *testing.T) {
	cfg := Default()
	cfg.Router.MLflowTopic = "experiments"
	assert.ErrorContains(t, cfg.Validate(), "mlflow.tracking_uri")

	cfg.MLflow.TrackingURI = "http://mlflow:5000"
	require.NoError(t, cfg.Validate())

	cfg.Router.MLflowTopic = cfg.Router.RawTopic
	assert.ErrorContains(t, cfg.Validate(), "router.mlflow_topic must differ")
}

func TestFXModuleProvidesSections(t *testing.T) {
	t.Setenv("KAFKA_GROUP_ID", "fx-group")

	var (
		k kafka.Config
		r router.Config
	)
	app := fxtest.New(t,
		FXModule(""),
		fx.Populate(&k, &r),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Equal(t, "fx-group", k.GroupID)
	assert.Equal(t, router.DefaultProcessedTopic, r.ProcessedTopic)
}
