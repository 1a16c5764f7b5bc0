package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestJSONDecoderNormalizesNumbers(t *testing.T) {
	got, err := JSONDecoder{}.Decode([]byte(`{
		"cell_index": 123,
		"rsrp": -85.5,
		"window_end": 1733684410.0,
		"rsrq": {"mean": -10, "p": [1, 2.5]},
		"network": "5G",
		"roaming": false,
		"missing": null
	}`))
	require.NoError(t, err)

	assert.Equal(t, int64(123), got["cell_index"])
	assert.Equal(t, -85.5, got["rsrp"])
	assert.Equal(t, 1733684410.0, got["window_end"])
	assert.Equal(t, map[string]any{"mean": int64(-10), "p": []any{int64(1), 2.5}}, got["rsrq"])
	assert.Equal(t, "5G", got["network"])
	assert.Equal(t, false, got["roaming"])
	assert.Contains(t, got, "missing")
	assert.Nil(t, got["missing"])
}

func TestJSONDecoderRejects(t *testing.T) {
	for name, content := range map[string]string{
		"empty":     "",
		"truncated": `{"a": `,
		"array":     `[{"a": 1}]`,
		"scalar":    `42`,
		"null":      `null`,
		"trailing":  `{"a": 1}x`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := JSONDecoder{}.Decode([]byte(content))
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestProtoDecoder(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"cell_index":   123,
		"sample_count": 0,
		"rsrp":         map[string]any{"mean": -85.5, "max": -80},
		"network":      "LTE",
		"bands":        []any{3, 7.5},
	})
	require.NoError(t, err)
	content, err := proto.Marshal(s)
	require.NoError(t, err)

	got, err := ProtoDecoder{}.Decode(content)
	require.NoError(t, err)
	assert.Equal(t, int64(123), got["cell_index"])
	assert.Equal(t, int64(0), got["sample_count"])
	assert.Equal(t, map[string]any{"mean": -85.5, "max": int64(-80)}, got["rsrp"])
	assert.Equal(t, "LTE", got["network"])
	assert.Equal(t, []any{int64(3), 7.5}, got["bands"])
}

func TestProtoDecoderRejectsGarbage(t *testing.T) {
	_, err := ProtoDecoder{}.Decode([]byte{0xff, 0xff, 0xff})
	assert.ErrorIs(t, err, ErrDecode)
}

func TestNewDecoder(t *testing.T) {
	d, err := NewDecoder("")
	require.NoError(t, err)
	assert.IsType(t, JSONDecoder{}, d)

	d, err = NewDecoder(FormatProtobuf)
	require.NoError(t, err)
	assert.IsType(t, ProtoDecoder{}, d)

	_, err = NewDecoder("xml")
	assert.Error(t, err)
}
