package api

import "time"

const (
	DefaultAddress      = ":8000"
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 30 * time.Second

	DefaultLimit = 100
	MaxLimit     = 1000
)

// Config controls the HTTP query server.
type Config struct {
	// Address is the listen address. Empty disables the server.
	Address      string        `yaml:"address" envconfig:"API_ADDRESS"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"API_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"API_WRITE_TIMEOUT"`
}

func (c Config) withDefaults() Config {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	return c
}
