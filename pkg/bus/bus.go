package bus

import (
	"context"
	"errors"
)

// ErrAlreadyStarted is returned by Start on a consumer that is running.
var ErrAlreadyStarted = errors.New("consumer already started")

// Message is one delivery from the bus.
type Message struct {
	Topic   string
	Key     []byte
	Content []byte
	// Headers carry producer metadata such as the trace context.
	Headers map[string]string
}

// Handler processes one message. Consumers acknowledge the message once Handler returns,
// whatever the outcome of processing was.
type Handler func(ctx context.Context, msg Message)

// Consumer delivers messages of a fixed set of topics to a Handler.
type Consumer interface {
	// Start subscribes to topics and begins delivery in the background. It returns once
	// the subscription is established or has failed.
	Start(ctx context.Context, topics []string, handler Handler) error

	// Stop stops delivery and waits for running handlers until ctx is done. Stopping a
	// consumer that was never started is a no-op.
	Stop(ctx context.Context) error
}
