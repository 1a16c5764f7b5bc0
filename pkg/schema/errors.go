package schema

import "errors"

// ErrValidation is the root of every per-record validation failure. Validation errors
// reject a single payload and never the stream it arrived on.
var ErrValidation = errors.New("validation error")

// ErrCast is returned by Kind.Cast when a value cannot be converted to the kind.
var ErrCast = errors.New("cannot cast value")

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
