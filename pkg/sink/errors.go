package sink

import (
	"errors"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/aggregate"
)

// ErrNoMetrics rejects a payload that holds no numeric value to log.
var ErrNoMetrics = errors.New("payload has no numeric metrics")

func reason(err error) string {
	switch {
	case errors.Is(err, ErrNoMetrics):
		return "no_metrics"
	case errors.Is(err, aggregate.ErrMissingRequiredField):
		return "missing_required_field"
	case errors.Is(err, aggregate.ErrInvalidWindow):
		return "invalid_window"
	default:
		return "invalid"
	}
}
