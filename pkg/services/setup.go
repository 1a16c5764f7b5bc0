package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/metrics"
)

// Kind identifies a backend.
type Kind string

const (
	TimeSeries Kind = "timeseries"
	Analytical Kind = "analytical"
	MLflow     Kind = "mlflow"
)

// State is the connection state of one kind.
type State int32

const (
	Uninitialized State = iota
	Connecting
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Logger defines the logging surface of the registry.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=services
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

type handle struct {
	svc Service
}

type slot struct {
	kind    Kind
	connect Connector

	mu     sync.Mutex
	state  atomic.Int32
	handle atomic.Pointer[handle]
}

// Registry holds at most one connected Service per kind for the life of the process.
//
// GetService connects a kind on first use. Concurrent first callers are serialized on
// the kind's mutex and exactly one of them runs the connector; the others receive the
// same handle. Once Ready, lookups take no lock.
type Registry struct {
	logger  Logger
	metrics *metrics.Metrics

	mu    sync.RWMutex
	slots map[Kind]*slot
}

// NewRegistry creates an empty registry.
func NewRegistry(logger Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		logger:  logger,
		metrics: m,
		slots:   make(map[Kind]*slot),
	}
}

// Register adds the connector for b.Kind.
func (r *Registry) Register(b Binding) error {
	if b.Connector == nil {
		return fmt.Errorf("registering %s: nil connector", b.Kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[b.Kind]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, b.Kind)
	}
	r.slots[b.Kind] = &slot{kind: b.Kind, connect: b.Connector}
	r.metrics.SetServiceState(string(b.Kind), int(Uninitialized))
	return nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.slots))
	for k := range r.slots {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (r *Registry) slot(kind Kind) (*slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return s, nil
}

// GetService returns the connected handle for kind, connecting it if needed.
//
// A connect failure is returned as a *BackendError and leaves the kind Uninitialized,
// so a later call tries again. There is no reconnect of a Ready handle.
//
// Concurrent first calls for the same kind share one connect attempt; calls for
// different kinds never wait on each other.
//
// Parameters:
//   - ctx: Bounds the connect attempt, if one is needed
//   - kind: The backend to return
//
// Returns:
//   - Service: The connected handle
//   - error: ErrUnknownKind for an unregistered kind, or a *BackendError
//
// Example:
//
//	svc, err := reg.GetService(ctx, services.TimeSeries)
//	if err != nil {
//		return err
//	}
//	client := svc.(*timeseries.Client)
func (r *Registry) GetService(ctx context.Context, kind Kind) (Service, error) {
	s, err := r.slot(kind)
	if err != nil {
		return nil, err
	}
	if h := s.handle.Load(); h != nil {
		return h.svc, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if h := s.handle.Load(); h != nil {
		return h.svc, nil
	}

	r.setState(s, Connecting)
	r.logger.Info("connecting backend", nil, map[string]interface{}{"kind": string(kind)})

	svc, err := s.connect(ctx)
	if err == nil && svc == nil {
		err = errors.New("connector returned no service")
	}
	if err != nil {
		r.setState(s, Uninitialized)
		r.metrics.IncServiceConnect(string(kind), false)
		r.logger.Error("backend connect failed", err, map[string]interface{}{"kind": string(kind)})
		return nil, &BackendError{Kind: kind, Op: "connect", Err: err}
	}

	s.handle.Store(&handle{svc: svc})
	r.setState(s, Ready)
	r.metrics.IncServiceConnect(string(kind), true)
	r.logger.Info("backend ready", nil, map[string]interface{}{"kind": string(kind)})
	return svc, nil
}

// Get returns the handle for kind as T.
//
//	ts, err := services.Get[*timeseries.Client](ctx, reg, services.TimeSeries)
func Get[T any](ctx context.Context, r *Registry, kind Kind) (T, error) {
	var zero T
	svc, err := r.GetService(ctx, kind)
	if err != nil {
		return zero, err
	}
	t, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("service %s is %T, not %T", kind, svc, zero)
	}
	return t, nil
}

// State returns the current state of kind. Unregistered kinds report Uninitialized.
func (r *Registry) State(kind Kind) State {
	s, err := r.slot(kind)
	if err != nil {
		return Uninitialized
	}
	return State(s.state.Load())
}

// Shutdown closes the handle of kind, if any, and resets it to Uninitialized.
func (r *Registry) Shutdown(kind Kind) error {
	s, err := r.slot(kind)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.handle.Swap(nil)
	r.setState(s, Uninitialized)
	if h == nil {
		return nil
	}
	if err := h.svc.Close(); err != nil {
		return &BackendError{Kind: kind, Op: "close", Err: err}
	}
	r.logger.Info("backend closed", nil, map[string]interface{}{"kind": string(kind)})
	return nil
}

// ShutdownAll closes every kind and joins the errors.
func (r *Registry) ShutdownAll() error {
	var errs []error
	for _, kind := range r.Kinds() {
		if err := r.Shutdown(kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WarmUp connects every registered kind in the background and returns immediately.
// The returned channel is closed once all attempts have finished.
func (r *Registry) WarmUp(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	kinds := r.Kinds()

	var g errgroup.Group
	for _, kind := range kinds {
		g.Go(func() error {
			_, err := r.GetService(ctx, kind)
			if err != nil {
				r.logger.Warn("backend warm-up failed, will connect on first use", err, map[string]interface{}{
					"kind": string(kind),
				})
			}
			return err
		})
	}
	go func() {
		_ = g.Wait()
		close(done)
	}()
	return done
}

func (r *Registry) setState(s *slot, st State) {
	s.state.Store(int32(st))
	r.metrics.SetServiceState(string(s.kind), int(st))
}
