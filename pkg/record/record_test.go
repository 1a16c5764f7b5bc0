package record

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/schema"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func testSnapshot() *schema.Snapshot {
	return schema.NewSnapshot(
		map[string]schema.Kind{
			"cell_index": schema.Integer,
			"rsrp":       schema.Float,
		},
		map[string]schema.Kind{
			"timestamp": schema.Datetime,
			"operator":  schema.String,
			"roaming":   schema.Bool,
			"sinr":      schema.Float,
		},
		[]string{"cell_index", "operator"},
	)
}

func testBuilder() Builder {
	return Builder{Clock: func() time.Time { return fixedNow }}
}

func TestBuildMissingCoreField(t *testing.T) {
	payloads := []map[string]any{
		{"rsrp": -85.5},
		{"cell_index": 1},
		{},
	}
	for _, p := range payloads {
		rec, err := testBuilder().Build(p, testSnapshot())
		assert.Nil(t, rec)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingCoreField))
		assert.True(t, schema.IsValidation(err))

		var missing *MissingCoreFieldError
		require.True(t, errors.As(err, &missing))
		_, present := p[missing.Field]
		assert.False(t, present)
	}
}

func TestBuildReportsFirstMissingFieldInOrder(t *testing.T) {
	_, err := testBuilder().Build(map[string]any{}, testSnapshot())
	var missing *MissingCoreFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "cell_index", missing.Field)
}

func TestBuildCastsAndDropsUnknown(t *testing.T) {
	rec, err := testBuilder().Build(map[string]any{
		"cell_index": "123",
		"rsrp":       -85,
		"operator":   42,
		"roaming":    "false",
		"unknown":    "dropped",
	}, testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, []string{"cell_index", "operator", "roaming", "rsrp"}, rec.Names())
	v, _ := rec.Value("cell_index")
	assert.Equal(t, int64(123), v)
	v, _ = rec.Value("rsrp")
	assert.Equal(t, -85.0, v)
	v, _ = rec.Value("operator")
	assert.Equal(t, "42", v)
	v, _ = rec.Value("roaming")
	assert.Equal(t, false, v)

	_, ok := rec.Value("unknown")
	assert.False(t, ok)
	assert.Equal(t, fixedNow, rec.Timestamp())
}

func TestBuildTypeMismatch(t *testing.T) {
	_, err := testBuilder().Build(map[string]any{
		"cell_index": 1,
		"rsrp":       "strong",
	}, testSnapshot())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.True(t, errors.Is(err, schema.ErrCast))

	var mismatch *TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "rsrp", mismatch.Field)
	assert.Equal(t, schema.Float, mismatch.Expected)
	assert.Equal(t, "strong", mismatch.Got)
	assert.Equal(t, "type_mismatch", Reason(err))
}

func TestBuildKeepsNulls(t *testing.T) {
	rec, err := testBuilder().Build(map[string]any{
		"cell_index": 1,
		"rsrp":       nil,
		"sinr":       nil,
	}, testSnapshot())
	require.NoError(t, err)

	v, ok := rec.Value("rsrp")
	assert.True(t, ok)
	assert.Nil(t, v)
	_, ok = rec.Value("roaming")
	assert.False(t, ok)
}

func TestBuildTimestamp(t *testing.T) {
	rec, err := testBuilder().Build(map[string]any{
		"cell_index": 1,
		"rsrp":       1.0,
		"timestamp":  1733684400,
	}, testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1733684400, 0).UTC(), rec.Timestamp())

	rec, err = testBuilder().Build(map[string]any{
		"cell_index": 1,
		"rsrp":       1.0,
		"timestamp":  nil,
	}, testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, fixedNow, rec.Timestamp())
}

func TestBuildTimestampOutOfRange(t *testing.T) {
	for _, bad := range []any{1e300, -1e300} {
		_, err := testBuilder().Build(map[string]any{
			"cell_index": 1,
			"rsrp":       1.0,
			"timestamp":  bad,
		}, testSnapshot())
		require.Error(t, err, "%v", bad)
		assert.True(t, errors.Is(err, ErrTypeMismatch))
		assert.Equal(t, "type_mismatch", Reason(err))
	}
}

func TestBuildTimestampDeclaredAsOtherKind(t *testing.T) {
	snap := schema.NewSnapshot(map[string]schema.Kind{"timestamp": schema.String}, nil, nil)
	rec, err := testBuilder().Build(map[string]any{"timestamp": "2024-12-08T19:00:00Z"}, snap)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 8, 19, 0, 0, 0, time.UTC), rec.Timestamp())
}

func TestAsMapIsACopy(t *testing.T) {
	rec, err := testBuilder().Build(map[string]any{"cell_index": 1, "rsrp": 2.0}, testSnapshot())
	require.NoError(t, err)
	m := rec.AsMap()
	m["rsrp"] = 99.0
	v, _ := rec.Value("rsrp")
	assert.Equal(t, 2.0, v)
}
