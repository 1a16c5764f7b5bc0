package record

import (
	"sort"
	"time"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
)

// TimestampField is the field that carries a record's time.
const TimestampField = "timestamp"

// Clock supplies the current time.
type Clock func() time.Time

// Record is a validated, typed payload. It is immutable once built.
type Record struct {
	timestamp time.Time
	values    map[string]any
	tags      map[string]struct{}
}

// Builder turns raw payloads into records. The zero value uses the wall clock.
type Builder struct {
	Clock Clock
}

// Build validates payload against snap with the wall clock.
func Build(payload map[string]any, snap *schema.Snapshot) (*Record, error) {
	return Builder{}.Build(payload, snap)
}

// Build validates payload against snap:
//   - every core field must be present (checked in sorted order);
//   - keys not declared as core or extra are dropped;
//   - non-null values are cast to their declared kind, nulls are kept as nulls;
//   - the timestamp defaults to the builder's clock when absent or null.
//
// Parameters:
//   - payload: One decoded telemetry message
//   - snap: The schema snapshot in effect for this message
//
// Returns:
//   - *Record: The validated record
//   - error: MissingCoreFieldError or TypeMismatchError
//
// Example:
//
//	rec, err := record.Builder{}.Build(map[string]any{
//		"cell_index": 7,
//		"rsrp":       "-85.5",
//		"timestamp":  1733684400,
//	}, registry.Snapshot())
//	if err != nil {
//		return record.Reason(err)
//	}
//	// rec.Value("rsrp") is -85.5 as float64
func (b Builder) Build(payload map[string]any, snap *schema.Snapshot) (*Record, error) {
	for _, name := range snap.CoreFields() {
		if _, ok := payload[name]; !ok {
			return nil, &MissingCoreFieldError{Field: name}
		}
	}

	rec := &Record{
		values: make(map[string]any, len(payload)),
		tags:   make(map[string]struct{}),
	}

	for name, raw := range payload {
		kind, ok := snap.TypeOf(name)
		if !ok {
			continue
		}
		if name == TimestampField {
			kind = schema.Datetime
		}
		if snap.IsTag(name) {
			rec.tags[name] = struct{}{}
		}
		if raw == nil {
			rec.values[name] = nil
			continue
		}
		v, err := kind.Cast(raw)
		if err != nil {
			return nil, &TypeMismatchError{Field: name, Expected: kind, Got: raw, cause: err}
		}
		rec.values[name] = v
	}

	if ts, ok := rec.values[TimestampField].(time.Time); ok {
		rec.timestamp = ts
	} else {
		rec.timestamp = b.now()
	}
	return rec, nil
}

func (b Builder) now() time.Time {
	if b.Clock != nil {
		return b.Clock().UTC()
	}
	return time.Now().UTC()
}

// Timestamp returns the record time in UTC.
func (r *Record) Timestamp() time.Time { return r.timestamp }

// Value returns the typed value of name. A present null yields (nil, true).
func (r *Record) Value(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// IsTag reports whether name is retained as a tag.
func (r *Record) IsTag(name string) bool {
	_, ok := r.tags[name]
	return ok
}

// Names returns the retained field names in sorted order.
func (r *Record) Names() []string {
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AsMap returns a copy of the retained values.
func (r *Record) AsMap() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
