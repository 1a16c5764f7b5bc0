package kafka

import "time"

// Default values applied by NewConsumer for unset fields.
const (
	DefaultGroupID     = "telemetry-ingest"
	DefaultMinBytes    = 1
	DefaultMaxBytes    = 10e6
	DefaultMaxWait     = 500 * time.Millisecond
	DefaultWorkers     = 4
	DefaultDialTimeout = 10 * time.Second
)

// Config configures the Kafka consumer group.
type Config struct {
	Brokers []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`
	GroupID string   `yaml:"group_id" envconfig:"KAFKA_GROUP_ID"`

	MinBytes int           `yaml:"min_bytes" envconfig:"KAFKA_MIN_BYTES"`
	MaxBytes int           `yaml:"max_bytes" envconfig:"KAFKA_MAX_BYTES"`
	MaxWait  time.Duration `yaml:"max_wait" envconfig:"KAFKA_MAX_WAIT"`

	// StartFromBeginning makes a new group start at the oldest offset instead of the newest.
	StartFromBeginning bool `yaml:"start_from_beginning" envconfig:"KAFKA_START_FROM_BEGINNING"`

	// Workers is the number of ordered handler goroutines. A partition is always handled
	// by the same worker, so per-partition order is kept.
	Workers int `yaml:"workers" envconfig:"KAFKA_WORKERS"`

	DialTimeout time.Duration `yaml:"dial_timeout" envconfig:"KAFKA_DIAL_TIMEOUT"`

	TLS  TLSConfig  `yaml:"tls"`
	SASL SASLConfig `yaml:"sasl"`
}

// TLSConfig enables TLS towards the brokers.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" envconfig:"KAFKA_TLS_ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" envconfig:"KAFKA_TLS_CA_CERT_PATH"`
	ClientCertPath     string `yaml:"client_cert_path" envconfig:"KAFKA_TLS_CLIENT_CERT_PATH"`
	ClientKeyPath      string `yaml:"client_key_path" envconfig:"KAFKA_TLS_CLIENT_KEY_PATH"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" envconfig:"KAFKA_TLS_INSECURE_SKIP_VERIFY"`
}

// SASLConfig enables SASL authentication. Mechanism is PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512.
type SASLConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"KAFKA_SASL_ENABLED"`
	Mechanism string `yaml:"mechanism" envconfig:"KAFKA_SASL_MECHANISM"`
	Username  string `yaml:"username" envconfig:"KAFKA_SASL_USERNAME"`
	Password  string `yaml:"password" envconfig:"KAFKA_SASL_PASSWORD"`
}

func (c Config) withDefaults() Config {
	if c.GroupID == "" {
		c.GroupID = DefaultGroupID
	}
	if c.MinBytes == 0 {
		c.MinBytes = DefaultMinBytes
	}
	if c.MaxBytes == 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.MaxWait == 0 {
		c.MaxWait = DefaultMaxWait
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	return c
}
