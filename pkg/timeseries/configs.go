package timeseries

import "time"

// Defaults applied by Connect for unset fields.
const (
	DefaultTable          = "raw_points"
	DefaultMaxConns       = 10
	DefaultConnectTimeout = 10 * time.Second
)

// Config describes the TimescaleDB (PostgreSQL) instance holding raw points.
//
// The point table is provisioned outside this service:
//
//	CREATE TABLE raw_points (
//	    time        TIMESTAMPTZ NOT NULL,
//	    measurement TEXT        NOT NULL,
//	    tags        JSONB       NOT NULL,
//	    fields      JSONB       NOT NULL
//	);
type Config struct {
	Host     string `yaml:"host" envconfig:"TIMESERIES_HOST"`
	Port     string `yaml:"port" envconfig:"TIMESERIES_PORT"`
	User     string `yaml:"user" envconfig:"TIMESERIES_USER"`
	Password string `yaml:"password" envconfig:"TIMESERIES_PASSWORD"`
	DbName   string `yaml:"db_name" envconfig:"TIMESERIES_DB_NAME"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"TIMESERIES_SSL_MODE"`

	// Table may be schema qualified ("metrics.raw_points").
	Table string `yaml:"table" envconfig:"TIMESERIES_TABLE"`

	MaxConns       int32         `yaml:"max_conns" envconfig:"TIMESERIES_MAX_CONNS"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"TIMESERIES_CONNECT_TIMEOUT"`
}

func (c Config) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return "host=" + c.Host + " port=" + c.Port + " user=" + c.User +
		" password=" + c.Password + " dbname=" + c.DbName + " sslmode=" + sslMode
}
