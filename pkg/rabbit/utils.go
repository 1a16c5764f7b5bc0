package rabbit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/bus"
)

// Start declares the exchange and queue, binds one routing key per topic and starts
// consuming with manual acknowledgements.
func (c *Consumer) Start(ctx context.Context, topics []string, handler bus.Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return bus.ErrAlreadyStarted
	}
	if len(topics) == 0 {
		return errors.New("rabbit: no topics to subscribe")
	}

	s, err := c.connect(ctx, topics)
	if err != nil {
		return err
	}

	life, end := context.WithCancel(context.Background())
	handleCtx, abort := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.sessMu.Lock()
	c.current = s
	c.sessMu.Unlock()

	c.running = true
	c.end = end
	c.abort = abort
	c.done = done

	go c.supervise(life, handleCtx, s, topics, handler, done)

	c.logger.Info("Rabbit consumer started", nil, map[string]interface{}{
		"topics":   topics,
		"exchange": c.cfg.Channel.ExchangeName,
		"queue":    c.cfg.Channel.QueueName,
	})
	return nil
}

// supervise runs the workers of one session at a time. When a session's deliveries stop
// while the consumer is still running, it reconnects and resubscribes.
func (c *Consumer) supervise(life, handleCtx context.Context, s session, topics []string, handler bus.Handler, done chan struct{}) {
	defer close(done)
	for {
		c.consume(handleCtx, s.Deliveries(), handler)
		if life.Err() != nil {
			return
		}

		c.logger.Error("Rabbit connection lost, reconnecting", s.Reason(), map[string]interface{}{
			"rabbit_addr": c.cfg.Connection.Host,
			"queue":       c.cfg.Channel.QueueName,
		})
		_ = s.Close()

		if s = c.reconnect(life, topics); s == nil {
			return
		}
	}
}

func (c *Consumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery, handler bus.Handler) {
	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Channel.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.work(ctx, deliveries, handler)
		}()
	}
	wg.Wait()
}

// reconnect dials until a session is established or life ends, in which case it
// returns nil.
func (c *Consumer) reconnect(life context.Context, topics []string) session {
	b := newBackoff(c.cfg.Channel)
	for attempt := 1; ; attempt++ {
		timer := time.NewTimer(b.NextBackOff())
		select {
		case <-life.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		s, err := c.connect(life, topics)
		if err != nil {
			c.logger.Warn("Rabbit reconnect attempt failed", err, map[string]interface{}{
				"attempt": attempt,
			})
			continue
		}
		if !c.setCurrent(life, s) {
			_ = s.Close()
			return nil
		}
		c.logger.Info("Reconnected to Rabbit", nil, map[string]interface{}{
			"attempt": attempt,
		})
		return s
	}
}

func (c *Consumer) setCurrent(life context.Context, s session) bool {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	if life.Err() != nil {
		return false
	}
	c.current = s
	return true
}

// newBackoff doubles the pause between reconnect attempts from ReconnectDelay up to
// MaxReconnectDelay, with jitter.
func newBackoff(ch Channel) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = ch.ReconnectDelay
	b.MaxInterval = ch.MaxReconnectDelay
	b.Multiplier = 2
	b.Reset()
	return b
}

func (c *Consumer) work(ctx context.Context, deliveries <-chan amqp.Delivery, handler bus.Handler) {
	for d := range deliveries {
		handler(ctx, toBusMessage(d))
		if err := d.Ack(false); err != nil {
			c.logger.Error("Rabbit ack failed", err, map[string]interface{}{
				"routing_key":  d.RoutingKey,
				"delivery_tag": d.DeliveryTag,
			})
		}
	}
}

// Stop cancels the subscription, waits for running handlers until ctx is done and
// closes the channel and connection. Unacknowledged deliveries are requeued by the broker.
// A reconnect in progress is abandoned.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.end()

	c.sessMu.Lock()
	s := c.current
	c.sessMu.Unlock()

	var errs []error
	if err := s.Cancel(c.cfg.Channel.ConsumerTag); err != nil {
		errs = append(errs, err)
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("rabbit: handlers still running at shutdown: %w", ctx.Err()))
	}
	c.abort()

	c.sessMu.Lock()
	s, c.current = c.current, nil
	c.sessMu.Unlock()
	if err := s.Close(); err != nil {
		errs = append(errs, err)
	}
	c.running = false

	c.logger.Info("Rabbit consumer stopped", nil, nil)
	return errors.Join(errs...)
}

func toBusMessage(d amqp.Delivery) bus.Message {
	var headers map[string]string
	for k, v := range d.Headers {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if headers == nil {
			headers = make(map[string]string, len(d.Headers))
		}
		headers[k] = s
	}
	return bus.Message{
		Topic:   d.RoutingKey,
		Key:     []byte(d.MessageId),
		Content: d.Body,
		Headers: headers,
	}
}
