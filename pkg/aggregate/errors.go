package aggregate

import (
	"fmt"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
)

var (
	// ErrMissingRequiredField is matched by every MissingRequiredFieldError.
	ErrMissingRequiredField = fmt.Errorf("missing required field: %w", schema.ErrValidation)

	// ErrInvalidWindow is returned when the window bounds are not numeric.
	ErrInvalidWindow = fmt.Errorf("invalid window: %w", schema.ErrValidation)
)

// MissingRequiredFieldError names the mandatory window key that is absent.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingRequiredFieldError) Unwrap() error { return ErrMissingRequiredField }
