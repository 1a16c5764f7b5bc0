package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
)

// Window keys every aggregate must carry.
const (
	FieldWindowStart = "window_start"
	FieldWindowEnd   = "window_end"
	FieldCellIndex   = "cell_index"
	FieldSampleCount = "sample_count"
)

// Computed columns.
const (
	ColumnWindowStartTime = "window_start_time"
	ColumnWindowEndTime   = "window_end_time"
	ColumnWindowDuration  = "window_duration_seconds"
)

// RequiredFields lists the mandatory window keys in the order they are checked.
var RequiredFields = []string{FieldWindowStart, FieldWindowEnd, FieldCellIndex, FieldSampleCount}

// DefaultRenames maps metric group names to their column prefix.
var DefaultRenames = map[string]string{
	"mean_latency": "latency",
}

// ColumnSet is the set of destination column names.
type ColumnSet map[string]struct{}

// NewColumnSet builds a ColumnSet from names.
func NewColumnSet(names ...string) ColumnSet {
	s := make(ColumnSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is a destination column.
func (c ColumnSet) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Row is one flat analytical row keyed by column name.
type Row map[string]any

// Transformer flattens aggregate windows. The zero value applies no renames.
type Transformer struct {
	Renames map[string]string
}

// NewTransformer returns a transformer using DefaultRenames.
func NewTransformer() Transformer {
	return Transformer{Renames: DefaultRenames}
}

// Flatten converts window into a row restricted to columns.
//
// Metric groups given as mappings become "<prefix>_<stat>" columns, where the prefix is
// the group name after renaming. Only scalar statistics are kept; deeper mappings and
// lists are dropped. Scalars keep their key. Flatten does not modify window.
//
// When two sources map to the same column the winner is fixed:
//   - the computed window columns always win,
//   - a group statistic beats a top-level scalar of the same name,
//   - between two groups, the group whose key sorts first wins.
//
// Parameters:
//   - window: One decoded aggregate window
//   - columns: The destination table's column names
//
// Returns:
//   - Row: Column values present in columns
//   - error: MissingRequiredFieldError or ErrInvalidWindow
//
// Example:
//
//	row, err := aggregate.NewTransformer().Flatten(map[string]any{
//		"window_start": 1733684400, "window_end": 1733684410,
//		"cell_index": 7, "sample_count": 100,
//		"mean_latency": map[string]any{"mean": 20.0},
//	}, columns)
//	// row["latency_mean"] == 20.0, row["window_duration_seconds"] == 10.0
func (t Transformer) Flatten(window map[string]any, columns ColumnSet) (Row, error) {
	for _, name := range RequiredFields {
		if _, ok := window[name]; !ok {
			return nil, &MissingRequiredFieldError{Field: name}
		}
	}

	start, err := epoch(window, FieldWindowStart)
	if err != nil {
		return nil, err
	}
	end, err := epoch(window, FieldWindowEnd)
	if err != nil {
		return nil, err
	}
	startTime, err := schema.EpochToTime(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidWindow, FieldWindowStart, err)
	}
	endTime, err := schema.EpochToTime(end)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidWindow, FieldWindowEnd, err)
	}

	flat := make(map[string]column, len(window)+3)
	set := func(name string, v any, p precedence) {
		if cur, ok := flat[name]; ok && cur.from <= p {
			return
		}
		flat[name] = column{value: v, from: p}
	}
	set(ColumnWindowStartTime, startTime, fromComputed)
	set(ColumnWindowEndTime, endTime, fromComputed)
	set(ColumnWindowDuration, end-start, fromComputed)

	for _, key := range sortedKeys(window) {
		if key == FieldWindowStart || key == FieldWindowEnd {
			continue
		}
		switch v := window[key].(type) {
		case map[string]any:
			base := t.rename(key)
			for _, sub := range sortedKeys(v) {
				if isScalar(v[sub]) {
					set(base+"_"+sub, v[sub], fromGroup)
				}
			}
		default:
			if isScalar(v) {
				set(key, v, fromScalar)
			}
		}
	}

	row := make(Row, len(flat))
	for name, c := range flat {
		if columns.Has(name) {
			row[name] = c.value
		}
	}
	return row, nil
}

// precedence orders the sources of a column value; lower wins.
type precedence int

const (
	fromComputed precedence = iota
	fromGroup
	fromScalar
)

type column struct {
	value any
	from  precedence
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SampleCount returns the window's sample_count as an integer. The second result is
// false when the key is absent or not a whole number.
func SampleCount(window map[string]any) (int64, bool) {
	raw, ok := window[FieldSampleCount]
	if !ok || raw == nil {
		return 0, false
	}
	v, err := schema.Integer.Cast(raw)
	if err != nil {
		return 0, false
	}
	return v.(int64), true
}

func (t Transformer) rename(key string) string {
	if to, ok := t.Renames[key]; ok {
		return to
	}
	return key
}

func epoch(window map[string]any, key string) (float64, error) {
	switch window[key].(type) {
	case bool, string:
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidWindow, key, window[key])
	}
	v, err := schema.Float.Cast(window[key])
	if err != nil || v == nil {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidWindow, key, window[key])
	}
	f := v.(float64)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidWindow, key, window[key])
	}
	return f, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any, map[any]any:
		return false
	}
	return true
}
