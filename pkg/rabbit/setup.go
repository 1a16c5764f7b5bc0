package rabbit

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/bus"
)

// Logger defines the logging surface of the RabbitMQ consumer.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=rabbit
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Consumer reads one durable queue bound to the subscribed topics and hands each
// delivery to a bus.Handler, acknowledging it once the handler returns.
//
// A lost connection is logged and re-established with exponential backoff; the queue
// bindings and consumer are declared again on the new connection.
type Consumer struct {
	cfg     Config
	logger  Logger
	connect func(ctx context.Context, topics []string) (session, error)

	mu      sync.Mutex
	running bool
	end     context.CancelFunc
	abort   context.CancelFunc
	done    chan struct{}

	sessMu  sync.Mutex
	current session
}

// NewConsumer prepares a consumer. Nothing is dialed until Start.
func NewConsumer(cfg Config, logger Logger) *Consumer {
	c := &Consumer{cfg: cfg.withDefaults(), logger: logger}
	c.connect = c.dial
	return c
}

// NewFactory exposes the consumer to bus selection.
func NewFactory(cfg Config, logger Logger) bus.Factory {
	return bus.Factory{
		Kind: bus.KindRabbit,
		New: func() (bus.Consumer, error) {
			return NewConsumer(cfg, logger), nil
		},
	}
}

func (c Config) url() string {
	scheme := "amqp"
	if c.Connection.IsSSLEnabled {
		scheme = "amqps"
	}
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(c.Connection.User, c.Connection.Password),
		Host:   net.JoinHostPort(c.Connection.Host, strconv.FormatUint(uint64(c.Connection.Port), 10)),
	}
	if c.Connection.VHost != "" {
		u.Path = "/" + c.Connection.VHost
	}
	return u.String()
}

// newConnection dials the broker. The dial honours the deadline of ctx.
//
// Three modes are supported: TLS with a client certificate, TLS with server
// authentication only, and plain AMQP.
func newConnection(ctx context.Context, cfg Config, logger Logger) (*amqp.Connection, error) {
	amqpCfg := amqp.Config{
		Heartbeat: 2 * time.Second,
		Dial:      amqp.DefaultDial(dialTimeout(ctx)),
	}

	if cfg.Connection.IsSSLEnabled {
		tlsConfig := &tls.Config{ServerName: cfg.Connection.ServerName}
		if cfg.Connection.UseCert {
			caCert, err := os.ReadFile(cfg.Connection.CACertPath)
			if err != nil {
				logger.Error("failed to read CA certificate", err, nil)
				return nil, err
			}
			caCertPool := x509.NewCertPool()
			caCertPool.AppendCertsFromPEM(caCert)

			cert, err := tls.LoadX509KeyPair(cfg.Connection.ClientCertPath, cfg.Connection.ClientKeyPath)
			if err != nil {
				logger.Error("failed to load client cert/key", err, nil)
				return nil, err
			}
			tlsConfig.RootCAs = caCertPool
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
		amqpCfg.TLSClientConfig = tlsConfig
	}

	conn, err := amqp.DialConfig(cfg.url(), amqpCfg)
	if err != nil {
		logger.Error("error in connecting to rabbit", err, map[string]interface{}{
			"rabbit_addr": cfg.Connection.Host,
		})
		return nil, fmt.Errorf("connecting to rabbit: %w", err)
	}
	logger.Info("Connected to Rabbit", nil, map[string]interface{}{
		"rabbit_addr": cfg.Connection.Host,
	})
	return conn, nil
}

func dialTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
		return time.Millisecond
	}
	return 30 * time.Second
}
