package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrDecode is returned when message content cannot be turned into a payload.
var ErrDecode = errors.New("decode error")

// Decoder turns message content into a payload mapping.
type Decoder interface {
	Decode(content []byte) (map[string]any, error)
}

// NewDecoder returns the decoder for format.
func NewDecoder(format string) (Decoder, error) {
	switch format {
	case "", FormatJSON:
		return JSONDecoder{}, nil
	case FormatProtobuf:
		return ProtoDecoder{}, nil
	default:
		return nil, fmt.Errorf("unknown payload format %q", format)
	}
}

// JSONDecoder decodes a JSON object. Whole numbers become int64, other numbers float64.
type JSONDecoder struct{}

func (JSONDecoder) Decode(content []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", ErrDecode)
	}
	obj, ok := normalize(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: content is not an object", ErrDecode)
	}
	return obj, nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	default:
		return v
	}
}

// ProtoDecoder decodes the binary encoding of a google.protobuf.Struct. Struct numbers
// are doubles; those holding a whole value are returned as int64.
type ProtoDecoder struct{}

func (ProtoDecoder) Decode(content []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(content, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	out := make(map[string]any, len(s.GetFields()))
	for k, v := range s.GetFields() {
		out[k] = protoValue(v)
	}
	return out, nil
}

func protoValue(v *structpb.Value) any {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f == float64(int64(f)) && f >= -(1<<53) && f <= 1<<53 {
			return int64(f)
		}
		return f
	case *structpb.Value_StructValue:
		m := make(map[string]any, len(k.StructValue.GetFields()))
		for name, e := range k.StructValue.GetFields() {
			m[name] = protoValue(e)
		}
		return m
	case *structpb.Value_ListValue:
		l := make([]any, 0, len(k.ListValue.GetValues()))
		for _, e := range k.ListValue.GetValues() {
			l = append(l, protoValue(e))
		}
		return l
	default:
		return v.AsInterface()
	}
}
