package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/bus"
)

const fetchRetryDelay = time.Second

// Start checks that a broker is reachable, joins the consumer group for topics and starts
// delivering in the background.
func (c *Consumer) Start(ctx context.Context, topics []string, handler bus.Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reader != nil {
		return bus.ErrAlreadyStarted
	}
	if len(topics) == 0 {
		return errors.New("kafka: no topics to subscribe")
	}
	if err := c.checkBrokers(ctx); err != nil {
		return err
	}

	reader := createReader(c.cfg, topics, c.dialer, c.logger)

	fetchCtx, cancel := context.WithCancel(context.Background())
	handleCtx, abort := context.WithCancel(context.Background())

	workers := make([]chan kafka.Message, c.cfg.Workers)
	var wg sync.WaitGroup
	for i := range workers {
		workers[i] = make(chan kafka.Message)
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			c.work(handleCtx, reader, in, handler)
		}(workers[i])
	}

	stopped := make(chan struct{})
	go func() {
		c.fetch(fetchCtx, reader, workers)
		for _, w := range workers {
			close(w)
		}
		wg.Wait()
		close(stopped)
	}()

	c.reader = reader
	c.cancel = cancel
	c.abort = abort
	c.stopped = stopped

	c.logger.Info("Kafka consumer started", nil, map[string]interface{}{
		"topics":  topics,
		"group":   c.cfg.GroupID,
		"workers": c.cfg.Workers,
	})
	return nil
}

// Stop stops fetching, lets running handlers finish until ctx is done and closes the
// reader, leaving the group.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reader == nil {
		return nil
	}

	c.cancel()

	var waitErr error
	select {
	case <-c.stopped:
	case <-ctx.Done():
		waitErr = fmt.Errorf("kafka: handlers still running at shutdown: %w", ctx.Err())
	}
	c.abort()

	closeErr := c.reader.Close()
	c.reader = nil
	c.logger.Info("Kafka consumer stopped", nil, nil)

	return errors.Join(waitErr, closeErr)
}

func (c *Consumer) checkBrokers(ctx context.Context) error {
	var errs []error
	for _, broker := range c.cfg.Brokers {
		conn, err := c.dialer.DialContext(ctx, "tcp", broker)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", broker, err))
	}
	return fmt.Errorf("kafka: no reachable broker: %w", errors.Join(errs...))
}

// fetch routes messages to workers by partition until ctx is cancelled.
func (c *Consumer) fetch(ctx context.Context, reader *kafka.Reader, workers []chan kafka.Message) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("Kafka fetch failed", err, nil)
			select {
			case <-ctx.Done():
				return
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		select {
		case workers[msg.Partition%len(workers)] <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) work(ctx context.Context, reader *kafka.Reader, in <-chan kafka.Message, handler bus.Handler) {
	for msg := range in {
		handler(ctx, toBusMessage(msg))

		if err := reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Kafka commit failed", err, map[string]interface{}{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			})
		}
	}
}

func toBusMessage(msg kafka.Message) bus.Message {
	var headers map[string]string
	if len(msg.Headers) > 0 {
		headers = make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
	}
	return bus.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Content: msg.Value,
		Headers: headers,
	}
}
