package canonical

import (
	"bytes"
	"maps"
	"slices"
)

// Value is a sealed interface over the primitive encoding categories.
// Only Null, Bool, Int, Uint, Float, Text, Bytes, Array and Map implement it.
type Value interface {
	canonicalValue() // Sealed
}

// Null is the CBOR null value.
type Null struct{}

func (Null) canonicalValue() {}

// Bool is a CBOR boolean.
type Bool bool

func (Bool) canonicalValue() {}

// Int is a signed integer. Every integer in [MinInt64, MaxInt64] is an Int,
// including non-negative ones.
type Int int64

func (Int) canonicalValue() {}

// Uint holds unsigned integers above MaxInt64. Smaller values lowered by
// FromAny become Int so each integer has one model form.
type Uint uint64

func (Uint) canonicalValue() {}

// Float is an IEEE-754 binary64 value.
type Float float64

func (Float) canonicalValue() {}

// Text is a UTF-8 text string.
type Text string

func (Text) canonicalValue() {}

// Bytes is a byte string.
type Bytes []byte

func (Bytes) canonicalValue() {}

// Array is an ordered sequence. Element order is preserved as given.
type Array []Value

func (Array) canonicalValue() {}

// Map is a text-keyed map. Use SortedKeys for deterministic iteration.
type Map map[string]Value

func (Map) canonicalValue() {}

// SortedKeys returns the keys in canonical order: ascending by raw UTF-8
// bytes. Go string comparison is bytewise, which is exactly that order.
func (m Map) SortedKeys() []string {
	return slices.Sorted(maps.Keys(m))
}

// Valuer is implemented by types that lower themselves into the value model,
// typically sum types whose wire form is not derivable from struct tags.
type Valuer interface {
	CanonicalValue() (Value, error)
}

// MarshalCBOR lets model values ride inside Go structs and `any` fields.
// The permissive policy is used here; the outer encode applies the real one.
func (v Null) MarshalCBOR() ([]byte, error)  { return Encode(v, FloatPermissive) }
func (v Bool) MarshalCBOR() ([]byte, error)  { return Encode(v, FloatPermissive) }
func (v Int) MarshalCBOR() ([]byte, error)   { return Encode(v, FloatPermissive) }
func (v Uint) MarshalCBOR() ([]byte, error)  { return Encode(v, FloatPermissive) }
func (v Float) MarshalCBOR() ([]byte, error) { return Encode(v, FloatPermissive) }
func (v Text) MarshalCBOR() ([]byte, error)  { return Encode(v, FloatPermissive) }
func (v Bytes) MarshalCBOR() ([]byte, error) { return Encode(v, FloatPermissive) }
func (v Array) MarshalCBOR() ([]byte, error) { return Encode(v, FloatPermissive) }
func (v Map) MarshalCBOR() ([]byte, error)   { return Encode(v, FloatPermissive) }

// Equal reports whether two values have the same canonical encoding.
// NaN equals NaN here, unlike ==.
func Equal(a, b Value) bool {
	ab, err := Encode(a, FloatPermissive)
	if err != nil {
		return false
	}
	bb, err := Encode(b, FloatPermissive)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// ToAny converts a value into plain Go types (nil, bool, int64, uint64,
// float64, string, []byte, []any, map[string]any) for JSON rendering and
// similar consumers outside this package.
func ToAny(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Uint:
		return uint64(val)
	case Float:
		return float64(val)
	case Text:
		return string(val)
	case Bytes:
		return []byte(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case Map:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}
