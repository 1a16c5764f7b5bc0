package services

import (
	"errors"
	"fmt"
)

var (
	// ErrBackend is matched by every BackendError.
	ErrBackend = errors.New("backend error")

	// ErrUnknownKind is returned for a kind that has no registered connector.
	ErrUnknownKind = errors.New("unknown service kind")

	// ErrAlreadyRegistered is returned when a kind is registered twice.
	ErrAlreadyRegistered = errors.New("service kind already registered")
)

// BackendError reports a failed connect, close or write against a backend kind.
type BackendError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *BackendError) Unwrap() []error { return []error{ErrBackend, e.Err} }

// IsBackend reports whether err is a backend failure.
func IsBackend(err error) bool {
	return errors.Is(err, ErrBackend)
}
