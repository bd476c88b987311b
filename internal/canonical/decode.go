package canonical

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

const maxNestedLevels = 128

var decMode cbor.DecMode

func init() {
	var err error
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		TagsMd:            cbor.TagsForbidden,
		DefaultMapType:    reflect.TypeOf(map[string]any(nil)),
		FieldNameMatching: cbor.FieldNameMatchingCaseSensitive,
		TextUnmarshaler:   cbor.TextUnmarshalerTextString,
		MaxNestedLevels:   maxNestedLevels,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("canonical: decode mode: %v", err))
	}
}

// Unmarshal decodes data into v, which must be a non-nil pointer.
//
// Unknown map entries are ignored. Fields that are required on the Go side
// (not a pointer, not omitempty, not interface-typed, no `canonical:"default"`
// marker) must be present and non-null, otherwise a DecodeError wrapping
// ErrMissingField is returned.
func Unmarshal(data []byte, v any) error {
	if out, ok := v.(*Value); ok {
		val, err := DecodeValue(data)
		if err != nil {
			return err
		}
		*out = val
		return nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &DecodeError{Err: fmt.Errorf("non-pointer or nil target %T", v)}
	}
	if err := decMode.Unmarshal(data, v); err != nil {
		return asDecodeError(err)
	}

	var raw any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return &DecodeError{Err: err}
	}
	if err := checkRequired(rv.Type().Elem(), raw, "$"); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// asDecodeError keeps errors from nested UnmarshalCBOR methods as they are.
func asDecodeError(err error) error {
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return err
	}
	return &DecodeError{Err: err}
}

// DecodeValue parses data into the value model. It accepts any well-formed
// untagged CBOR with text map keys; use EnsureCanonical to also check form.
func DecodeValue(data []byte) (Value, error) {
	var raw any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Err: err}
	}
	val, err := lower(raw)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return val, nil
}

// EnsureCanonical decodes data, re-encodes it under policy and requires the
// result to be byte-identical to data. A difference yields a *MismatchError.
func EnsureCanonical(data []byte, policy FloatPolicy) error {
	val, err := DecodeValue(data)
	if err != nil {
		return err
	}
	enc := &encoder{policy: policy}
	if err := enc.encode(val); err != nil {
		return &EncodeError{Err: err}
	}
	if bytes.Equal(enc.buf, data) {
		return nil
	}
	return &MismatchError{
		Offset:       firstDiff(data, enc.buf),
		StoredLen:    len(data),
		CanonicalLen: len(enc.buf),
	}
}

// Diagnose renders data in CBOR extended diagnostic notation.
func Diagnose(data []byte) (string, error) {
	out, err := cbor.Diagnose(data)
	if err != nil {
		return "", &DecodeError{Err: err}
	}
	return out, nil
}

func firstDiff(a, b []byte) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

var (
	cborUnmarshalerType = reflect.TypeFor[cbor.Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	bytesType           = reflect.TypeFor[[]byte]()
)

// checkRequired walks the generic decode of the input alongside the target
// type and reports the first required struct field that is absent or null.
// Types with their own UnmarshalCBOR validate themselves and are skipped.
func checkRequired(t reflect.Type, raw any, path string) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if raw == nil {
		return nil
	}
	ptr := reflect.PointerTo(t)
	if ptr.Implements(cborUnmarshalerType) || ptr.Implements(textUnmarshalerType) {
		return nil
	}

	switch t.Kind() {
	case reflect.Struct:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil
		}
		for _, f := range fieldsOf(t) {
			val, present := m[f.name]
			fieldPath := path + "." + f.name
			if !present || (val == nil && f.nonNull) {
				if f.required {
					return fmt.Errorf("%w: %s", ErrMissingField, fieldPath)
				}
				continue
			}
			if err := checkRequired(f.typ, val, fieldPath); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if t == bytesType || t.Elem().Kind() == reflect.Uint8 {
			return nil
		}
		arr, ok := raw.([]any)
		if !ok {
			return nil
		}
		for i, elem := range arr {
			if err := checkRequired(t.Elem(), elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil
		}
		for k, elem := range m {
			if err := checkRequired(t.Elem(), elem, fmt.Sprintf("%s[%q]", path, k)); err != nil {
				return err
			}
		}
	}
	return nil
}

type fieldInfo struct {
	name     string
	typ      reflect.Type
	required bool
	nonNull  bool
}

// fieldsOf lists the wire fields of a struct type, flattening embedded
// structs the way fxamacker/cbor does. Names come from the cbor tag, then
// the json tag, then the Go field name.
func fieldsOf(t reflect.Type) []fieldInfo {
	var out []fieldInfo
	for i := range t.NumField() {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("cbor")
		if !ok {
			tag = sf.Tag.Get("json")
		}
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		if sf.Anonymous && name == "" {
			et := sf.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct {
				embedded := fieldsOf(et)
				if sf.Type.Kind() == reflect.Pointer {
					for j := range embedded {
						embedded[j].required = false
					}
				}
				out = append(out, embedded...)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}

		kind := sf.Type.Kind()
		nullable := kind == reflect.Pointer || kind == reflect.Interface
		optional := nullable ||
			hasOption(opts, "omitempty") ||
			hasOption(opts, "omitzero") ||
			sf.Tag.Get("canonical") == "default"
		out = append(out, fieldInfo{
			name:     name,
			typ:      sf.Type,
			required: !optional,
			nonNull:  !nullable,
		})
	}
	return out
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}
