package canonical

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Typed Go values are lowered by round-tripping them through fxamacker/cbor:
// its reflection handles struct tags (cbor, falling back to json), omitempty,
// embedded structs and Marshaler implementations. The decoded generic tree is
// then converted into the value model and written by the canonical encoder,
// so the modes below never decide the final byte layout.
var (
	lowerEncMode cbor.EncMode
	lowerDecMode cbor.DecMode
)

func init() {
	var err error
	lowerEncMode, err = cbor.EncOptions{
		NilContainers: cbor.NilContainerAsEmpty,
		TextMarshaler: cbor.TextMarshalerTextString,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("canonical: lower encode mode: %v", err))
	}

	lowerDecMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[any]any(nil)),
		MaxNestedLevels: maxNestedLevels,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("canonical: lower decode mode: %v", err))
	}
}

// FromAny lowers a Go value into the value model.
//
// Supported inputs: nil, Value, Valuer, bool, all sized integer kinds,
// float32/float64, string, []byte, []any, []Value, map[string]any,
// map[any]any with text keys, big.Int within the integer range, and any type
// fxamacker/cbor can marshal. Nil pointers lower to Null; nil slices and maps
// lower to empty containers. Tags and CBOR simple values are unsupported.
//
// Types that implement Valuer but are embedded in other structs must also
// implement cbor.Marshaler so the reflective path picks up their wire form.
func FromAny(v any) (Value, error) {
	val, err := lower(v)
	if err != nil {
		var encErr *EncodeError
		if errors.As(err, &encErr) {
			return nil, err
		}
		return nil, &EncodeError{Err: err}
	}
	return val, nil
}

func lower(v any) (Value, error) {
	if v == nil {
		return Null{}, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null{}, nil
	}

	switch val := v.(type) {
	case Value:
		return val, nil
	case Valuer:
		return val.CanonicalValue()
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return fromUint(uint64(val)), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		return fromUint(val), nil
	case float32:
		return Float(float64(val)), nil
	case float64:
		return Float(val), nil
	case string:
		return Text(val), nil
	case []byte:
		return Bytes(val), nil
	case big.Int:
		return fromBig(&val)
	case *big.Int:
		return fromBig(val)
	case []any:
		out := make(Array, len(val))
		for i, elem := range val {
			lv, err := lower(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = lv
		}
		return out, nil
	case []Value:
		return Array(val), nil
	case map[string]any:
		out := make(Map, len(val))
		for k, elem := range val {
			lv, err := lower(elem)
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", k, err)
			}
			out[k] = lv
		}
		return out, nil
	case map[string]Value:
		return Map(val), nil
	case map[any]any:
		out := make(Map, len(val))
		for k, elem := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %T", ErrNonTextKey, k)
			}
			lv, err := lower(elem)
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", key, err)
			}
			out[key] = lv
		}
		return out, nil
	case cbor.Tag, cbor.RawTag, cbor.SimpleValue:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, v)
	}

	return lowerReflect(v)
}

// lowerReflect handles structs and other typed containers.
func lowerReflect(v any) (Value, error) {
	data, err := lowerEncMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrUnsupported, v, err)
	}
	var generic any
	if err := lowerDecMode.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrUnsupported, v, err)
	}
	// The generic tree only holds the plain types handled by lower.
	return lower(generic)
}

func fromUint(u uint64) Value {
	if u <= math.MaxInt64 {
		return Int(u)
	}
	return Uint(u)
}

func fromBig(b *big.Int) (Value, error) {
	switch {
	case b.IsInt64():
		return Int(b.Int64()), nil
	case b.IsUint64():
		return Uint(b.Uint64()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrIntRange, b.String())
	}
}
