package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/analytics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/api"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/bus"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/kafka"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/logger"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/metrics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/mlflow"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/rabbit"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/record"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/router"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/sink"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/timeseries"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/tracer"
)

// PathEnv names the variable holding the configuration file path when none is given.
const PathEnv = "TELEMETRY_CONFIG"

// Config is the root configuration. Each section is handed to its package unchanged.
type Config struct {
	Logger     logger.Config     `yaml:"logger"`
	Metrics    metrics.Config    `yaml:"metrics"`
	Tracer     tracer.Config     `yaml:"tracer"`
	Schema     schema.Config     `yaml:"schema"`
	Services   services.Config   `yaml:"services"`
	TimeSeries timeseries.Config `yaml:"timeseries"`
	Analytics  analytics.Config  `yaml:"analytics"`
	MLflow     mlflow.Config     `yaml:"mlflow"`
	Bus        bus.Config        `yaml:"bus"`
	Kafka      kafka.Config      `yaml:"kafka"`
	Rabbit     rabbit.Config     `yaml:"rabbit"`
	Sink       sink.Config       `yaml:"sink"`
	Router     router.Config     `yaml:"router"`
	API        api.Config        `yaml:"api"`
}

// Default returns the configuration used when neither file nor environment set a value.
func Default() Config {
	return Config{
		Logger: logger.Config{
			Level:       logger.Info,
			ServiceName: logger.DefaultServiceName,
			Encoding:    "json",
		},
		Metrics: metrics.Config{
			Address:                 metrics.DefaultMetricsAddress,
			EnableDefaultCollectors: true,
			ServiceName:             logger.DefaultServiceName,
		},
		Tracer: tracer.Config{
			ServiceName: logger.DefaultServiceName,
			AppEnv:      "development",
		},
		Schema: schema.Config{
			CoreFieldsPath:  schema.DefaultCoreFieldsPath,
			ExtraFieldsPath: schema.DefaultExtraFieldsPath,
			TagFieldsPath:   schema.DefaultTagFieldsPath,
		},
		Services: services.Config{WarmUp: true},
		TimeSeries: timeseries.Config{
			Host:           "localhost",
			Port:           "5432",
			User:           "postgres",
			DbName:         "telemetry",
			SSLMode:        "disable",
			Table:          timeseries.DefaultTable,
			MaxConns:       timeseries.DefaultMaxConns,
			ConnectTimeout: timeseries.DefaultConnectTimeout,
		},
		Analytics: analytics.Config{
			Driver:         analytics.DriverPostgres,
			Host:           "localhost",
			Port:           "5432",
			User:           "postgres",
			DbName:         "telemetry",
			SSLMode:        "disable",
			Table:          analytics.DefaultTable,
			ConnectTimeout: analytics.DefaultConnectTimeout,
		},
		MLflow: mlflow.Config{
			ExperimentName: mlflow.DefaultExperimentName,
			RequestTimeout: mlflow.DefaultRequestTimeout,
		},
		Bus: bus.Config{Kind: bus.KindKafka},
		Kafka: kafka.Config{
			Brokers: []string{"localhost:9092"},
			GroupID: kafka.DefaultGroupID,
			Workers: kafka.DefaultWorkers,
		},
		Rabbit: rabbit.Config{
			Connection: rabbit.Connection{
				Host:     "localhost",
				Port:     5672,
				User:     "guest",
				Password: "guest",
			},
			Channel: rabbit.Channel{
				ExchangeName:  rabbit.DefaultExchange,
				QueueName:     rabbit.DefaultQueue,
				PrefetchCount: rabbit.DefaultPrefetch,
				Workers:       rabbit.DefaultWorkers,

				ReconnectDelay:    rabbit.DefaultReconnectDelay,
				MaxReconnectDelay: rabbit.DefaultMaxReconnectDelay,
			},
		},
		Sink: sink.Config{Measurement: record.DefaultMeasurement},
		Router: router.Config{
			RawTopic:       router.DefaultRawTopic,
			ProcessedTopic: router.DefaultProcessedTopic,
			PayloadFormat:  router.FormatJSON,
			StartTimeout:   router.DefaultStartTimeout,
			StopTimeout:    router.DefaultStopTimeout,
		},
		API: api.Config{
			Address:      api.DefaultAddress,
			ReadTimeout:  api.DefaultReadTimeout,
			WriteTimeout: api.DefaultWriteTimeout,
		},
	}
}

// Load builds the configuration from the defaults, then the YAML file at path (skipped
// when path is empty), then the environment. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := decodeYAML(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromEnv is Load with the path taken from TELEMETRY_CONFIG.
func LoadFromEnv() (Config, error) {
	return Load(os.Getenv(PathEnv))
}

func decodeYAML(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports settings no component can start with.
func (c Config) Validate() error {
	var errs []error

	switch c.Bus.Kind {
	case bus.KindKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers must not be empty"))
		}
	case bus.KindRabbit:
		if c.Rabbit.Connection.Host == "" {
			errs = append(errs, errors.New("rabbit.connection.host must not be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("bus.kind %q is not one of %s, %s", c.Bus.Kind, bus.KindKafka, bus.KindRabbit))
	}

	switch c.Analytics.Driver {
	case analytics.DriverPostgres, analytics.DriverDuckDB:
	default:
		errs = append(errs, fmt.Errorf("analytics.driver %q is not one of %s, %s",
			c.Analytics.Driver, analytics.DriverPostgres, analytics.DriverDuckDB))
	}

	if _, err := router.NewDecoder(c.Router.PayloadFormat); err != nil {
		errs = append(errs, fmt.Errorf("router.payload_format: %w", err))
	}
	if c.Router.RawTopic == c.Router.ProcessedTopic {
		errs = append(errs, errors.New("router.raw_topic and router.processed_topic must differ"))
	}
	if t := c.Router.MLflowTopic; t != "" {
		if t == c.Router.RawTopic || t == c.Router.ProcessedTopic {
			errs = append(errs, errors.New("router.mlflow_topic must differ from the raw and processed topics"))
		}
		if !c.MLflow.Enabled() {
			errs = append(errs, errors.New("router.mlflow_topic requires mlflow.tracking_uri"))
		}
	}

	return errors.Join(errs...)
}
