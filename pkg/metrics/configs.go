package metrics

// DefaultMetricsAddress is where /metrics is served when Config.Address is empty.
const DefaultMetricsAddress = ":9090"

// Config controls the ingestion metrics registry and its HTTP endpoint.
type Config struct {
	// Address of the /metrics server, e.g. ":9090" or "127.0.0.1:9100".
	Address string `yaml:"address" envconfig:"METRICS_ADDRESS"`

	// EnableDefaultCollectors adds the Go runtime, process and build info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS"`

	// Namespace prefixes every metric name: "netmon" turns ingest_messages_total into
	// netmon_ingest_messages_total.
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`

	// ServiceName becomes the constant "service" label.
	ServiceName string `yaml:"service_name" envconfig:"METRICS_SERVICE_NAME"`
}
