package rabbit

import "time"

// Defaults applied by NewConsumer for unset fields.
const (
	DefaultExchange = "telemetry"
	DefaultQueue    = "telemetry-ingest"
	DefaultPrefetch = 32
	DefaultWorkers  = 4

	DefaultReconnectDelay    = time.Second
	DefaultMaxReconnectDelay = 30 * time.Second
)

// Config configures the RabbitMQ consumer.
//
// Each subscribed topic is bound to the queue as a routing key on a durable topic
// exchange, so producers publish with routing key = topic.
type Config struct {
	Connection Connection `yaml:"connection"`
	Channel    Channel    `yaml:"channel"`
}

// Connection describes how to reach the broker.
type Connection struct {
	Host           string `yaml:"host" envconfig:"RABBIT_HOST"`
	Port           uint   `yaml:"port" envconfig:"RABBIT_PORT"`
	User           string `yaml:"user" envconfig:"RABBIT_USER"`
	Password       string `yaml:"password" envconfig:"RABBIT_PASSWORD"`
	VHost          string `yaml:"vhost" envconfig:"RABBIT_VHOST"`
	IsSSLEnabled   bool   `yaml:"is_ssl_enabled" envconfig:"RABBIT_SSL_ENABLED"`
	UseCert        bool   `yaml:"use_cert" envconfig:"RABBIT_USE_CERT"`
	CACertPath     string `yaml:"ca_cert_path" envconfig:"RABBIT_CA_CERT_PATH"`
	ClientCertPath string `yaml:"client_cert_path" envconfig:"RABBIT_CLIENT_CERT_PATH"`
	ClientKeyPath  string `yaml:"client_key_path" envconfig:"RABBIT_CLIENT_KEY_PATH"`
	ServerName     string `yaml:"server_name" envconfig:"RABBIT_SERVER_NAME"`
}

// Channel describes the exchange and queue the consumer reads from.
type Channel struct {
	ExchangeName  string `yaml:"exchange_name" envconfig:"RABBIT_EXCHANGE"`
	QueueName     string `yaml:"queue_name" envconfig:"RABBIT_QUEUE"`
	PrefetchCount int    `yaml:"prefetch_count" envconfig:"RABBIT_PREFETCH"`
	Workers       int    `yaml:"workers" envconfig:"RABBIT_WORKERS"`
	ConsumerTag   string `yaml:"consumer_tag" envconfig:"RABBIT_CONSUMER_TAG"`

	// ReconnectDelay is the first pause after a lost connection; it doubles per failed
	// attempt up to MaxReconnectDelay.
	ReconnectDelay    time.Duration `yaml:"reconnect_delay" envconfig:"RABBIT_RECONNECT_DELAY"`
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay" envconfig:"RABBIT_MAX_RECONNECT_DELAY"`
}

func (c Config) withDefaults() Config {
	if c.Connection.Port == 0 {
		c.Connection.Port = 5672
	}
	if c.Channel.ExchangeName == "" {
		c.Channel.ExchangeName = DefaultExchange
	}
	if c.Channel.QueueName == "" {
		c.Channel.QueueName = DefaultQueue
	}
	if c.Channel.PrefetchCount <= 0 {
		c.Channel.PrefetchCount = DefaultPrefetch
	}
	if c.Channel.Workers <= 0 {
		c.Channel.Workers = DefaultWorkers
	}
	if c.Channel.ConsumerTag == "" {
		c.Channel.ConsumerTag = DefaultQueue
	}
	if c.Channel.ReconnectDelay <= 0 {
		c.Channel.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Channel.MaxReconnectDelay < c.Channel.ReconnectDelay {
		c.Channel.MaxReconnectDelay = max(DefaultMaxReconnectDelay, c.Channel.ReconnectDelay)
	}
	return c
}
