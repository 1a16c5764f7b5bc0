package analytics

import "time"

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
)

// Defaults applied for unset fields.
const (
	DefaultTable          = "processed_latency"
	DefaultConnectTimeout = 10 * time.Second
)

// Config selects and configures the analytical store.
//
// The destination table is provisioned outside this service; its columns are read once
// at connect time and decide which flattened fields are written.
type Config struct {
	// Driver is "postgres" (default) or "duckdb".
	Driver string `yaml:"driver" envconfig:"ANALYTICS_DRIVER"`

	Host     string `yaml:"host" envconfig:"ANALYTICS_HOST"`
	Port     string `yaml:"port" envconfig:"ANALYTICS_PORT"`
	User     string `yaml:"user" envconfig:"ANALYTICS_USER"`
	Password string `yaml:"password" envconfig:"ANALYTICS_PASSWORD"`
	DbName   string `yaml:"db_name" envconfig:"ANALYTICS_DB_NAME"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"ANALYTICS_SSL_MODE"`

	// DuckDBPath is the database file for the duckdb driver. Empty means in-memory.
	DuckDBPath string `yaml:"duckdb_path" envconfig:"ANALYTICS_DUCKDB_PATH"`

	Table string `yaml:"table" envconfig:"ANALYTICS_TABLE"`

	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"ANALYTICS_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"ANALYTICS_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"ANALYTICS_CONN_MAX_LIFETIME"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" envconfig:"ANALYTICS_CONNECT_TIMEOUT"`
}

func (c Config) withDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.Table == "" {
		c.Table = DefaultTable
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	return c
}

func (c Config) dsn() string {
	return "host=" + c.Host + " port=" + c.Port + " user=" + c.User +
		" password=" + c.Password + " dbname=" + c.DbName + " sslmode=" + c.SSLMode
}
