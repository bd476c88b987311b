package canonical

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/x448/float16"
)

// FloatPolicy selects how floats are treated by the encoder.
type FloatPolicy int

const (
	// FloatStrict rejects NaN, ±Inf and floats whose value is an integer,
	// so int/float ambiguity can never reach canonical output. Every float
	// with magnitude of 2^53 or more is integral, so 1.1e300 and 9.1e15 are
	// rejected too.
	FloatStrict FloatPolicy = iota
	// FloatPermissive accepts any IEEE-754 value. Only for example and
	// fixture payloads, never for fingerprint or signature material.
	FloatPermissive
)

func (p FloatPolicy) String() string {
	switch p {
	case FloatStrict:
		return "strict"
	case FloatPermissive:
		return "permissive"
	default:
		return fmt.Sprintf("FloatPolicy(%d)", int(p))
	}
}

// CBOR major types.
const (
	majorUint   byte = 0
	majorNegInt byte = 1
	majorBytes  byte = 2
	majorText   byte = 3
	majorArray  byte = 4
	majorMap    byte = 5
	majorSimple byte = 7
)

// Encode produces the canonical encoding of v under the given float policy.
// v may be a Value, a Valuer, plain Go scalars, []any, map[string]any, or
// any struct/slice/map that fxamacker/cbor can marshal.
func Encode(v any, policy FloatPolicy) ([]byte, error) {
	val, err := FromAny(v)
	if err != nil {
		return nil, err
	}
	enc := &encoder{policy: policy}
	if err := enc.encode(val); err != nil {
		return nil, &EncodeError{Err: err}
	}
	return enc.buf, nil
}

// Marshal encodes v under FloatStrict.
func Marshal(v any) ([]byte, error) {
	return Encode(v, FloatStrict)
}

// MarshalAllowFloats encodes v under FloatPermissive.
func MarshalAllowFloats(v any) ([]byte, error) {
	return Encode(v, FloatPermissive)
}

// encoder is the canonical writer. One per call; never shared.
type encoder struct {
	buf    []byte
	policy FloatPolicy
}

// head writes a major type with its argument in the shortest form.
func (e *encoder) head(major byte, arg uint64) {
	initial := major << 5
	switch {
	case arg < 24:
		e.buf = append(e.buf, initial|byte(arg))
	case arg <= math.MaxUint8:
		e.buf = append(e.buf, initial|24, byte(arg))
	case arg <= math.MaxUint16:
		e.buf = append(e.buf, initial|25)
		e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(arg))
	case arg <= math.MaxUint32:
		e.buf = append(e.buf, initial|26)
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(arg))
	default:
		e.buf = append(e.buf, initial|27)
		e.buf = binary.BigEndian.AppendUint64(e.buf, arg)
	}
}

func (e *encoder) encode(v Value) error {
	switch val := v.(type) {
	case nil, Null:
		e.buf = append(e.buf, majorSimple<<5|22)
	case Bool:
		if val {
			e.buf = append(e.buf, majorSimple<<5|21)
		} else {
			e.buf = append(e.buf, majorSimple<<5|20)
		}
	case Int:
		if val >= 0 {
			e.head(majorUint, uint64(val))
		} else {
			// -1-n, computed without overflow for MinInt64.
			e.head(majorNegInt, uint64(^int64(val)))
		}
	case Uint:
		e.head(majorUint, uint64(val))
	case Float:
		return e.float(float64(val))
	case Text:
		return e.text(string(val))
	case Bytes:
		e.head(majorBytes, uint64(len(val)))
		e.buf = append(e.buf, val...)
	case Array:
		e.head(majorArray, uint64(len(val)))
		for i, elem := range val {
			if err := e.encode(elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
	case Map:
		// Explicit sort; Go map iteration order is never used.
		keys := val.SortedKeys()
		e.head(majorMap, uint64(len(keys)))
		for _, k := range keys {
			if err := e.text(k); err != nil {
				return fmt.Errorf("map key %q: %w", k, err)
			}
			if err := e.encode(val[k]); err != nil {
				return fmt.Errorf("map[%q]: %w", k, err)
			}
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
	return nil
}

func (e *encoder) text(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidUTF8, s)
	}
	e.head(majorText, uint64(len(s)))
	e.buf = append(e.buf, s...)
	return nil
}

// float writes f at the shortest width that round-trips exactly.
// NaN is always written as the quiet half-precision NaN 0xf97e00.
func (e *encoder) float(f float64) error {
	if e.policy == FloatStrict {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %v", ErrNonFinite, f)
		}
		if f == math.Trunc(f) {
			return fmt.Errorf("%w: %v", ErrIntegralFloat, f)
		}
	}

	if math.IsNaN(f) {
		e.buf = append(e.buf, majorSimple<<5|25, 0x7e, 0x00)
		return nil
	}

	f32 := float32(f)
	if float64(f32) != f {
		e.buf = append(e.buf, majorSimple<<5|27)
		e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(f))
		return nil
	}

	if half := float16.Fromfloat32(f32); half.Float32() == f32 {
		e.buf = append(e.buf, majorSimple<<5|25)
		e.buf = binary.BigEndian.AppendUint16(e.buf, half.Bits())
		return nil
	}

	e.buf = append(e.buf, majorSimple<<5|26)
	e.buf = binary.BigEndian.AppendUint32(e.buf, math.Float32bits(f32))
	return nil
}
