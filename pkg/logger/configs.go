package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// DefaultServiceName is attached to every log entry when Config.ServiceName is empty.
const DefaultServiceName = "telemetry-ingest"

type Config struct {
	// Level is one of debug, info, warning or error. Anything else -> info.
	Level string `yaml:"level" envconfig:"LOGGER_LEVEL"`

	// ServiceName is emitted as the "service" field on every entry.
	ServiceName string `yaml:"service_name" envconfig:"LOGGER_SERVICE_NAME"`

	// Encoding selects the zap encoder: "json" (default) or "console".
	Encoding string `yaml:"encoding" envconfig:"LOGGER_ENCODING"`
}
