package record

import (
	"fmt"
	"sort"
	"time"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
)

// DefaultMeasurement names points built from raw records.
const DefaultMeasurement = "raw"

// Tag is one categorical label of a point.
type Tag struct {
	Key   string
	Value string
}

// Point is one time-series write unit.
type Point struct {
	Measurement string
	Timestamp   time.Time
	Tags        []Tag
	Fields      map[string]any
}

// ToPoint renders rec. The timestamp field and null values are left out; tag fields are
// stringified into Tags (sorted by key) and every other field keeps its typed value.
func ToPoint(rec *Record, measurement string) Point {
	if measurement == "" {
		measurement = DefaultMeasurement
	}
	p := Point{
		Measurement: measurement,
		Timestamp:   rec.timestamp,
		Fields:      make(map[string]any, len(rec.values)),
	}
	for name, v := range rec.values {
		if name == TimestampField || v == nil {
			continue
		}
		if rec.IsTag(name) {
			p.Tags = append(p.Tags, Tag{Key: name, Value: tagValue(v)})
			continue
		}
		p.Fields[name] = v
	}
	sort.Slice(p.Tags, func(i, j int) bool { return p.Tags[i].Key < p.Tags[j].Key })
	return p
}

// Tag returns the value of the tag key.
func (p Point) Tag(key string) (string, bool) {
	for _, t := range p.Tags {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

// TagMap returns the tags as a map.
func (p Point) TagMap() map[string]string {
	m := make(map[string]string, len(p.Tags))
	for _, t := range p.Tags {
		m[t.Key] = t.Value
	}
	return m
}

func tagValue(v any) string {
	if s, err := schema.String.Cast(v); err == nil {
		return s.(string)
	}
	return fmt.Sprint(v)
}
