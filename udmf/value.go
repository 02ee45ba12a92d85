package udmf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the type of a UDMF value.
type Kind int

const (
	Int Kind = iota
	Float
	String
	Bool
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Bool:
		return "bool"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a single UDMF value. Only the field matching Kind is meaningful.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

// IntValue returns an integer Value
func IntValue(i int64) Value { return Value{Kind: Int, Int: i} }

// FloatValue returns a float Value
func FloatValue(f float64) Value { return Value{Kind: Float, Float: f} }

// StringValue returns a string Value. The string is stored verbatim, without escape processing.
func StringValue(s string) Value { return Value{Kind: String, Str: s} }

// BoolValue returns a boolean Value
func BoolValue(b bool) Value { return Value{Kind: Bool, Bool: b} }

// Number returns the value as a float64 if it is numeric.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case Int:
		return float64(v.Int), true
	case Float:
		return v.Float, true
	}
	return 0, false
}

// String formats the value as it would appear on the right-hand side of an assignment.
func (v Value) String() string {
	s, err := v.literal()
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return s
}

// literal renders the value in UDMF syntax, failing for values the grammar cannot express.
func (v Value) literal() (string, error) {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.Int, 10), nil
	case Float:
		return FormatFloat(v.Float)
	case String:
		if !quotable(v.Str) {
			return "", fmt.Errorf("string %q cannot be quoted without escape processing", v.Str)
		}
		return `"` + v.Str + `"`, nil
	case Bool:
		if v.Bool {
			return "true", nil
		}
		return "false", nil
	}
	return "", fmt.Errorf("unknown value kind %d", int(v.Kind))
}

// MarshalYAML emits the underlying Go value.
func (v Value) MarshalYAML() (any, error) {
	switch v.Kind {
	case Int:
		return v.Int, nil
	case Float:
		return v.Float, nil
	case String:
		return v.Str, nil
	case Bool:
		return v.Bool, nil
	}
	return nil, fmt.Errorf("unknown value kind %d", int(v.Kind))
}

// FormatFloat renders f in shortest form that parses back to exactly f, always with a decimal point.
func FormatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("float %v has no UDMF representation", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsRune(s, '.') {
		return s, nil
	}
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		return s[:i] + ".0" + s[i:], nil
	}
	return s + ".0", nil
}

// quotable reports whether s survives a write-read cycle: no bare quote and no trailing
// backslash, since the reader terminates on the first unescaped quote.
func quotable(s string) bool {
	escaped := false
	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == '"':
			return false
		}
	}
	return !escaped
}
