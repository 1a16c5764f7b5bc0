package router

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/bus"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/metrics"
	"github.com/Aleph-Alpha/telemetry-ingest/pkg/tracer"
)

// Sink persists one decoded payload and reports whether it succeeded.
//
//go:generate mockgen -source=router.go -destination=mock_sink.go -package=router
type Sink interface {
	Write(ctx context.Context, payload map[string]any) bool
}

// Outcome is the result of handling one message.
type Outcome int

const (
	Dispatched Outcome = iota
	WriteFailed
	DecodeFailed
	UnknownTopic
)

func (o Outcome) String() string {
	switch o {
	case Dispatched:
		return "dispatched"
	case WriteFailed:
		return "write_failed"
	case DecodeFailed:
		return "decode_failed"
	case UnknownTopic:
		return "unknown_topic"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// State is the router lifecycle state.
type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Option customizes a Router.
type Option func(*Router)

// WithDecoder replaces the default JSONDecoder.
func WithDecoder(d Decoder) Option {
	return func(r *Router) { r.decoder = d }
}

// WithMetrics counts handled messages per topic and outcome.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithTracer wraps message handling in spans continuing the producer's trace.
func WithTracer(t *tracer.Tracer) Option {
	return func(r *Router) { r.tracer = t }
}

// WithStartTimeout bounds Start.
func WithStartTimeout(d time.Duration) Option {
	return func(r *Router) { r.startTimeout = d }
}

// WithStopTimeout bounds the wait for in-flight messages in Stop.
func WithStopTimeout(d time.Duration) Option {
	return func(r *Router) { r.stopTimeout = d }
}

// Router decodes bus messages and dispatches them to the sink bound to their topic.
// The topic table is fixed at construction.
type Router struct {
	consumer bus.Consumer
	bindings map[string]Sink
	decoder  Decoder
	logger   Logger
	metrics  *metrics.Metrics
	tracer   *tracer.Tracer

	startTimeout time.Duration
	stopTimeout  time.Duration

	mu    sync.Mutex
	state atomic.Int32
}

// New creates a stopped router.
func New(consumer bus.Consumer, bindings map[string]Sink, logger Logger, opts ...Option) *Router {
	table := make(map[string]Sink, len(bindings))
	for topic, s := range bindings {
		table[topic] = s
	}
	r := &Router{
		consumer:     consumer,
		bindings:     table,
		decoder:      JSONDecoder{},
		logger:       logger,
		startTimeout: DefaultStartTimeout,
		stopTimeout:  DefaultStopTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle state.
func (r *Router) State() State {
	return State(r.state.Load())
}

// Topics returns the bound topics in sorted order.
func (r *Router) Topics() []string {
	topics := make([]string, 0, len(r.bindings))
	for t := range r.bindings {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Start subscribes the consumer to exactly topics. Topics without a bound sink are
// subscribed to but their messages are dropped. When the bus cannot be started within
// the start timeout the router stays Stopped and the error is returned.
//
// Parameters:
//   - ctx: Parent context of the start attempt
//   - topics: The topics to subscribe to
//
// Returns:
//   - error: bus.ErrAlreadyStarted when running, or the consumer's start error
//
// Example:
//
//	r := router.New(consumer, map[string]router.Sink{
//		"raw-data":       tsSink,
//		"processed-data": analyticalSink,
//	}, logger)
//	if err := r.Start(ctx, r.Topics()); err != nil {
//		return err
//	}
//	defer r.Stop(context.Background())
func (r *Router) Start(ctx context.Context, topics []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State() != Stopped {
		return bus.ErrAlreadyStarted
	}
	r.state.Store(int32(Starting))

	for _, t := range topics {
		if _, ok := r.bindings[t]; !ok {
			r.logger.Warn("no sink bound to topic, its messages will be dropped", nil, map[string]interface{}{
				"topic": t,
			})
		}
	}

	startCtx, cancel := context.WithTimeout(ctx, r.startTimeout)
	defer cancel()

	if err := r.consumer.Start(startCtx, topics, func(ctx context.Context, msg bus.Message) {
		r.HandleMessage(ctx, msg)
	}); err != nil {
		r.state.Store(int32(Stopped))
		r.logger.Error("message bus failed to start, ingestion disabled", err, map[string]interface{}{
			"topics": topics,
		})
		return fmt.Errorf("start router: %w", err)
	}

	r.state.Store(int32(Running))
	r.logger.Info("router running", nil, map[string]interface{}{"topics": topics})
	return nil
}

// Stop stops the consumer and waits for in-flight messages up to the stop timeout.
// Stopping a router that is not running is a no-op.
func (r *Router) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State() != Running {
		return nil
	}
	r.state.Store(int32(Stopping))
	defer r.state.Store(int32(Stopped))

	stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
	defer cancel()

	if err := r.consumer.Stop(stopCtx); err != nil {
		r.logger.Warn("message bus did not stop cleanly", err, nil)
		return fmt.Errorf("stop router: %w", err)
	}
	r.logger.Info("router stopped", nil)
	return nil
}

// HandleMessage processes one message. It never panics and never returns an error;
// failures are reported through the Outcome, logs and metrics.
//
// Outcomes:
//   - UnknownTopic: no sink is bound to msg.Topic
//   - DecodeFailed: the decoder rejected the content
//   - Dispatched or WriteFailed: what the sink reported
func (r *Router) HandleMessage(ctx context.Context, msg bus.Message) (outcome Outcome) {
	ctx = r.tracer.SetCarrierOnContext(ctx, msg.Headers)
	ctx, span := r.tracer.StartSpan(ctx, "router.handle")
	defer func() {
		r.tracer.SetAttributes(span, map[string]interface{}{
			"topic":   msg.Topic,
			"outcome": outcome.String(),
		})
		span.End()
		r.metrics.IncMessages(msg.Topic, outcome.String())
	}()

	payload, err := r.decoder.Decode(msg.Content)
	if err != nil {
		r.tracer.RecordErrorOnSpan(span, err)
		r.logger.Warn("dropping undecodable message", err, map[string]interface{}{
			"topic": msg.Topic,
			"bytes": len(msg.Content),
		})
		return DecodeFailed
	}

	s, ok := r.bindings[msg.Topic]
	if !ok {
		r.logger.Warn("dropping message for unbound topic", nil, map[string]interface{}{
			"topic": msg.Topic,
		})
		return UnknownTopic
	}

	if !r.write(ctx, s, msg.Topic, payload) {
		r.logger.Warn("sink rejected message", nil, map[string]interface{}{
			"topic": msg.Topic,
		})
		return WriteFailed
	}
	return Dispatched
}

func (r *Router) write(ctx context.Context, s Sink, topic string, payload map[string]any) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("sink panicked", fmt.Errorf("panic: %v", p), map[string]interface{}{
				"topic": topic,
			})
			ok = false
		}
	}()
	return s.Write(ctx, payload)
}
