package schema

import (
	"fmt"
	"strings"
)

// Kind is the semantic type of a schema field.
type Kind int

const (
	String Kind = iota
	Float
	Integer
	Datetime
	Bool
)

var kindNames = map[Kind]string{
	String:   "string",
	Float:    "float",
	Integer:  "integer",
	Datetime: "datetime",
	Bool:     "bool",
}

var kindSynonyms = map[string]Kind{
	"float":    Float,
	"integer":  Integer,
	"int":      Integer,
	"string":   String,
	"str":      String,
	"datetime": Datetime,
	"bool":     Bool,
	"boolean":  Bool,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a type name to a Kind, ignoring case and surrounding whitespace.
// The second result is false for unrecognized names, in which case String is returned.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindSynonyms[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return String, false
	}
	return k, true
}

// Cast converts v to the Go representation of k:
// String → string, Float → float64, Integer → int64, Datetime → time.Time (UTC), Bool → bool.
// A nil value is returned unchanged.
func (k Kind) Cast(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch k {
	case String:
		return castString(v)
	case Float:
		return castFloat(v)
	case Integer:
		return castInteger(v)
	case Datetime:
		return castDatetime(v)
	case Bool:
		return castBool(v)
	default:
		return nil, fmt.Errorf("%w: unknown kind %s", ErrCast, k)
	}
}
