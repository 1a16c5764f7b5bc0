package services

// Config controls the service registry.
type Config struct {
	// WarmUp connects every registered backend in the background at application start.
	// Failures are logged and the backend is connected again on first use.
	WarmUp bool `yaml:"warm_up" envconfig:"SERVICES_WARM_UP"`
}
