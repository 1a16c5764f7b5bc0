package sink

// Config controls the sinks.
type Config struct {
	// Measurement names the points written by the time-series sink. Default "raw".
	Measurement string `yaml:"measurement" envconfig:"SINK_MEASUREMENT"`
}
