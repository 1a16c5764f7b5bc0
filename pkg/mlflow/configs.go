package mlflow

import "time"

// Defaults applied by Connect for unset fields.
const (
	DefaultExperimentName = "default"
	DefaultRequestTimeout = 10 * time.Second
)

// Config describes the MLflow tracking server.
type Config struct {
	// TrackingURI is the server base URL, e.g. "http://mlflow:5000". Empty disables
	// the backend.
	TrackingURI    string `yaml:"tracking_uri" envconfig:"MLFLOW_TRACKING_URI"`
	ExperimentName string `yaml:"experiment_name" envconfig:"MLFLOW_EXPERIMENT_NAME"`

	// Token is sent as a bearer token when set.
	Token          string        `yaml:"token" envconfig:"MLFLOW_TRACKING_TOKEN"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"MLFLOW_REQUEST_TIMEOUT"`
}

// Enabled reports whether a tracking server is configured.
func (c Config) Enabled() bool {
	return c.TrackingURI != ""
}

func (c Config) withDefaults() Config {
	if c.ExperimentName == "" {
		c.ExperimentName = DefaultExperimentName
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}
