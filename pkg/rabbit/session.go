package rabbit

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// session is one live subscription. Its delivery channel closes when the consumer is
// cancelled or the connection or channel drops.
type session interface {
	Deliveries() <-chan amqp.Delivery
	// Reason returns the broker's close error once the deliveries have stopped, nil
	// after a clean shutdown.
	Reason() error
	Cancel(consumerTag string) error
	Close() error
}

type amqpSession struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	deliveries <-chan amqp.Delivery
	connClosed chan *amqp.Error
	chanClosed chan *amqp.Error
}

// dial connects, declares the topology and starts consuming.
func (c *Consumer) dial(ctx context.Context, topics []string) (session, error) {
	conn, err := newConnection(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	s := &amqpSession{
		conn:       conn,
		connClosed: conn.NotifyClose(make(chan *amqp.Error, 1)),
	}

	ch, deliveries, err := c.subscribe(conn, topics)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	s.channel = ch
	s.deliveries = deliveries
	s.chanClosed = ch.NotifyClose(make(chan *amqp.Error, 1))
	return s, nil
}

func (c *Consumer) subscribe(conn *amqp.Connection, topics []string) (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("opening channel: %w", err)
	}

	exchange := c.cfg.Channel.ExchangeName
	queue := c.cfg.Channel.QueueName

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, nil, fmt.Errorf("declaring queue %s: %w", queue, err)
	}
	for _, topic := range topics {
		if err := ch.QueueBind(queue, topic, exchange, false, nil); err != nil {
			return nil, nil, fmt.Errorf("binding %s to %s: %w", topic, queue, err)
		}
	}
	if err := ch.Qos(c.cfg.Channel.PrefetchCount, 0, false); err != nil {
		return nil, nil, fmt.Errorf("setting prefetch: %w", err)
	}

	deliveries, err := ch.Consume(queue, c.cfg.Channel.ConsumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("consuming %s: %w", queue, err)
	}
	return ch, deliveries, nil
}

func (s *amqpSession) Deliveries() <-chan amqp.Delivery { return s.deliveries }

func (s *amqpSession) Reason() error {
	for _, notify := range []chan *amqp.Error{s.connClosed, s.chanClosed} {
		select {
		case err, ok := <-notify:
			if ok && err != nil {
				return err
			}
		default:
		}
	}
	return nil
}

func (s *amqpSession) Cancel(consumerTag string) error {
	if err := s.channel.Cancel(consumerTag, false); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("cancelling consumer: %w", err)
	}
	return nil
}

func (s *amqpSession) Close() error {
	var errs []error
	if err := s.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, err)
	}
	if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
