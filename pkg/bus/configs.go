package bus

// Supported consumer kinds.
const (
	KindKafka  = "kafka"
	KindRabbit = "rabbit"
)

// Config selects the message bus implementation.
type Config struct {
	// Kind is "kafka" (default) or "rabbit".
	Kind string `yaml:"kind" envconfig:"BUS_KIND"`
}
