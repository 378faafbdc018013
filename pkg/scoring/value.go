package scoring

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is an approximate quantity (an error or a score) that may be
// missing. The zero Value is missing.
type Value struct {
	v  float64
	ok bool
}

// Present returns a defined Value. NaN is treated as missing.
func Present(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// Missing returns a missing Value.
func Missing() Value { return Value{} }

// FromFloat64 converts a float where NaN marks a missing entry.
func FromFloat64(v float64) Value { return Present(v) }

// FromFloats converts a slice of floats where NaN marks missing entries.
func FromFloats(vs []float64) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Present(v)
	}
	return out
}

// Get returns the underlying float and whether it is defined.
func (v Value) Get() (float64, bool) { return v.v, v.ok }

// IsMissing reports whether v carries no value.
func (v Value) IsMissing() bool { return !v.ok }

// Float64 returns the value, or NaN when missing.
func (v Value) Float64() float64 {
	if !v.ok {
		return math.NaN()
	}
	return v.v
}

// Or returns the value, or def when missing.
func (v Value) Or(def float64) float64 {
	if !v.ok {
		return def
	}
	return v.v
}

func (v Value) String() string {
	if !v.ok {
		return "NaN"
	}
	return strconv.FormatFloat(v.v, 'g', -1, 64)
}

// MarshalJSON encodes a missing Value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v.v, 'g', -1, 64)), nil
}

// UnmarshalJSON accepts a number, null or the string "NaN".
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 1 && b[0] == '"' && b[len(b)-1] == '"' {
		b = b[1 : len(b)-1]
	}
	return v.UnmarshalText(b)
}

// UnmarshalText accepts a finite number, or one of "", "null", "~", "NaN",
// ".nan" for a missing value. It is used by YAML decoding as well.
func (v *Value) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch strings.ToLower(s) {
	case "", "null", "~", "nan", ".nan":
		*v = Value{}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	*v = Present(f)
	return nil
}

// MarshalText mirrors String so that YAML output round-trips.
func (v Value) MarshalText() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return []byte(v.String()), nil
}

// MarshalYAML encodes a missing Value as .nan, which survives decoding
// inside sequences where null items are dropped.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.Float64(), nil
}

// defined returns the defined entries of vs in order.
func defined(vs []Value) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		if v.ok {
			out = append(out, v.v)
		}
	}
	return out
}
