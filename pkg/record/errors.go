package record

import (
	"errors"
	"fmt"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
)

var (
	// ErrMissingCoreField is matched by every MissingCoreFieldError.
	ErrMissingCoreField = fmt.Errorf("missing core field: %w", schema.ErrValidation)

	// ErrTypeMismatch is matched by every TypeMismatchError.
	ErrTypeMismatch = fmt.Errorf("type mismatch: %w", schema.ErrValidation)
)

// MissingCoreFieldError reports a required field absent from the payload.
type MissingCoreFieldError struct {
	Field string
}

func (e *MissingCoreFieldError) Error() string {
	return fmt.Sprintf("missing core field %q", e.Field)
}

func (e *MissingCoreFieldError) Unwrap() error { return ErrMissingCoreField }

// TypeMismatchError reports a value that cannot be cast to its declared kind.
type TypeMismatchError struct {
	Field    string
	Expected schema.Kind
	Got      any
	cause    error
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("field %q: expected %s, got %T(%v)", e.Field, e.Expected, e.Got, e.Got)
}

func (e *TypeMismatchError) Unwrap() []error { return []error{ErrTypeMismatch, e.cause} }

// Reason returns a short label describing a validation error, for metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingCoreField):
		return "missing_core_field"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, schema.ErrValidation):
		return "invalid"
	default:
		return "other"
	}
}
