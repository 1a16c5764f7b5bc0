package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Accepted datetime string layouts. Layouts without a zone are read as UTC.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func castError(v any, k Kind) error {
	return fmt.Errorf("%w: %T(%v) to %s", ErrCast, v, v, k)
}

// numeric reports the float64 value of any Go numeric type or json.Number.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// exactInt returns integer-typed values without a float round trip.
func exactInt(v any) (int64, bool, error) {
	switch n := v.(type) {
	case int:
		return int64(n), true, nil
	case int8:
		return int64(n), true, nil
	case int16:
		return int64(n), true, nil
	case int32:
		return int64(n), true, nil
	case int64:
		return n, true, nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, true, castError(v, Integer)
		}
		return int64(n), true, nil
	case uint8:
		return int64(n), true, nil
	case uint16:
		return int64(n), true, nil
	case uint32:
		return int64(n), true, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, true, castError(v, Integer)
		}
		return int64(n), true, nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true, nil
		}
	}
	return 0, false, nil
}

func castString(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case bool:
		return strconv.FormatBool(s), nil
	case json.Number:
		return s.String(), nil
	case time.Time:
		return s.UTC().Format(time.RFC3339Nano), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), nil
	}
	if i, ok, err := exactInt(v); ok && err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	if u, ok := v.(uint64); ok {
		return strconv.FormatUint(u, 10), nil
	}
	if u, ok := v.(uint); ok {
		return strconv.FormatUint(uint64(u), 10), nil
	}
	return nil, castError(v, String)
}

func castFloat(v any) (any, error) {
	switch s := v.(type) {
	case bool:
		if s {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, castError(v, Float)
		}
		return f, nil
	}
	if f, ok := numeric(v); ok {
		return f, nil
	}
	return nil, castError(v, Float)
}

func castInteger(v any) (any, error) {
	switch s := v.(type) {
	case bool:
		if s {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, castError(v, Integer)
		}
		return i, nil
	}
	if i, ok, err := exactInt(v); ok {
		if err != nil {
			return nil, err
		}
		return i, nil
	}
	if f, ok := numeric(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, castError(v, Integer)
		}
		return int64(f), nil
	}
	return nil, castError(v, Integer)
}

func castBool(v any) (any, error) {
	switch s := v.(type) {
	case bool:
		return s, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, castError(v, Bool)
		}
		return b, nil
	}
	if f, ok := numeric(v); ok {
		return f != 0, nil
	}
	return nil, castError(v, Bool)
}

func castDatetime(v any) (any, error) {
	switch s := v.(type) {
	case time.Time:
		return s.UTC(), nil
	case bool:
		return nil, castError(v, Datetime)
	case string:
		return parseDatetime(s)
	}
	if i, ok, err := exactInt(v); ok && err == nil {
		if i < minEpochSeconds || i > maxEpochSeconds {
			return nil, castError(v, Datetime)
		}
		return time.Unix(i, 0).UTC(), nil
	}
	if f, ok := numeric(v); ok {
		return EpochToTime(f)
	}
	return nil, castError(v, Datetime)
}

func parseDatetime(s string) (any, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, castError(s, Datetime)
}

// Epoch bounds accepted by EpochToTime: 0001-01-01T00:00:00Z to 9999-12-31T23:59:59Z.
const (
	minEpochSeconds = -62135596800
	maxEpochSeconds = 253402300799
)

// EpochToTime converts fractional Unix seconds to a UTC time. NaN, infinities and
// values outside years 1 to 9999 fail.
func EpochToTime(seconds float64) (time.Time, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return time.Time{}, castError(seconds, Datetime)
	}
	if seconds < minEpochSeconds || seconds >= maxEpochSeconds+1 {
		return time.Time{}, castError(seconds, Datetime)
	}
	sec, frac := math.Modf(seconds)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), nil
}
