package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPointSplitsTagsAndFields(t *testing.T) {
	payload := map[string]any{
		"cell_index": 123,
		"rsrp":       -85.5,
		"operator":   "acme",
		"roaming":    true,
		"sinr":       nil,
		"timestamp":  "2024-12-08T19:00:00Z",
	}
	rec, err := testBuilder().Build(payload, testSnapshot())
	require.NoError(t, err)

	p := ToPoint(rec, "")

	assert.Equal(t, DefaultMeasurement, p.Measurement)
	assert.Equal(t, time.Date(2024, 12, 8, 19, 0, 0, 0, time.UTC), p.Timestamp)
	assert.Equal(t, []Tag{{Key: "cell_index", Value: "123"}, {Key: "operator", Value: "acme"}}, p.Tags)
	assert.Equal(t, map[string]any{"rsrp": -85.5, "roaming": true}, p.Fields)

	for _, tag := range p.Tags {
		_, dup := p.Fields[tag.Key]
		assert.False(t, dup, tag.Key)
	}
	_, hasTS := p.Fields["timestamp"]
	assert.False(t, hasTS)
}

func TestToPointEveryFieldLandsOnce(t *testing.T) {
	payload := map[string]any{"cell_index": 7, "rsrp": -90.0, "operator": "x", "roaming": false}
	rec, err := testBuilder().Build(payload, testSnapshot())
	require.NoError(t, err)

	p := ToPoint(rec, "cells")
	assert.Equal(t, "cells", p.Measurement)
	for name := range payload {
		_, inFields := p.Fields[name]
		_, inTags := p.Tag(name)
		assert.True(t, inFields != inTags, name)
		assert.Equal(t, rec.IsTag(name), inTags, name)
	}
	assert.Equal(t, map[string]string{"cell_index": "7", "operator": "x"}, p.TagMap())
}

func TestToPointOmitsNullTags(t *testing.T) {
	rec, err := testBuilder().Build(map[string]any{"cell_index": 1, "rsrp": 1.0, "operator": nil}, testSnapshot())
	require.NoError(t, err)

	p := ToPoint(rec, "raw")
	_, ok := p.Tag("operator")
	assert.False(t, ok)
}
