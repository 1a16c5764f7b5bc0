package services

import "context"

// Service is a connected backend handle.
type Service interface {
	Close() error
}

// Connector creates and connects a backend handle. It may block.
type Connector func(ctx context.Context) (Service, error)

// Binding associates a kind with its connector. Backend packages contribute bindings to
// the "connectors" fx value group.
type Binding struct {
	Kind      Kind
	Connector Connector
}
