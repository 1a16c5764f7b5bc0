package router

import "time"

// Payload formats.
const (
	FormatJSON     = "json"
	FormatProtobuf = "protobuf"
)

// Defaults applied to zero-valued fields.
const (
	DefaultRawTopic       = "raw-data"
	DefaultProcessedTopic = "processed-data"
	DefaultStartTimeout   = 10 * time.Second
	DefaultStopTimeout    = 15 * time.Second
)

// Config controls topic bindings, payload decoding and lifecycle timeouts.
// MLflowTopic is unbound when empty.
type Config struct {
	RawTopic       string        `yaml:"raw_topic" envconfig:"ROUTER_RAW_TOPIC"`
	ProcessedTopic string        `yaml:"processed_topic" envconfig:"ROUTER_PROCESSED_TOPIC"`
	MLflowTopic    string        `yaml:"mlflow_topic" envconfig:"ROUTER_MLFLOW_TOPIC"`
	PayloadFormat  string        `yaml:"payload_format" envconfig:"ROUTER_PAYLOAD_FORMAT"`
	StartTimeout   time.Duration `yaml:"start_timeout" envconfig:"ROUTER_START_TIMEOUT"`
	StopTimeout    time.Duration `yaml:"stop_timeout" envconfig:"ROUTER_STOP_TIMEOUT"`
}

func (c Config) withDefaults() Config {
	if c.RawTopic == "" {
		c.RawTopic = DefaultRawTopic
	}
	if c.ProcessedTopic == "" {
		c.ProcessedTopic = DefaultProcessedTopic
	}
	if c.PayloadFormat == "" {
		c.PayloadFormat = FormatJSON
	}
	if c.StartTimeout <= 0 {
		c.StartTimeout = DefaultStartTimeout
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	return c
}
