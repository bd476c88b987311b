package schemair

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/fxamacker/cbor/v2"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

// ErrUnknownKind is wrapped when a wire "type" tag names no known variant.
var ErrUnknownKind = errors.New("unknown schema kind")

// ErrNoShape is wrapped when encoding a zero Schema.
var ErrNoShape = errors.New("schema has no shape")

var null = []byte{0xf6}

// CanonicalValue lowers the schema into its internally tagged wire form:
// {"type": kind, ...fields}. Absent optional bounds are written as null.
func (s Schema) CanonicalValue() (canonical.Value, error) {
	m := canonical.Map{}
	switch sh := s.Shape.(type) {
	case nil:
		return nil, fmt.Errorf("%w: %w", canonical.ErrUnsupported, ErrNoShape)
	case Object:
		props := make(canonical.Map, len(sh.Properties))
		for name, prop := range sh.Properties {
			v, err := prop.CanonicalValue()
			if err != nil {
				return nil, fmt.Errorf("properties[%q]: %w", name, err)
			}
			props[name] = v
		}
		required := make(canonical.Array, len(sh.Required))
		for i, name := range sh.Required {
			required[i] = canonical.Text(name)
		}
		additional, err := sh.Additional.CanonicalValue()
		if err != nil {
			return nil, fmt.Errorf("additional: %w", err)
		}
		m["properties"] = props
		m["required"] = required
		m["additional"] = additional
	case Array:
		items, err := sh.Items.CanonicalValue()
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		m["items"] = items
		m["min_items"] = optUint(sh.MinItems)
		m["max_items"] = optUint(sh.MaxItems)
	case String:
		m["min_len"] = optUint(sh.MinLen)
		m["max_len"] = optUint(sh.MaxLen)
		m["regex"] = optText(sh.Regex)
		m["format"] = optText(sh.Format)
	case Int:
		m["min"] = optInt(sh.Min)
		m["max"] = optInt(sh.Max)
	case Float:
		m["min"] = optFloat(sh.Min)
		m["max"] = optFloat(sh.Max)
	case Bool, Null, Bytes:
	case Enum:
		values := make(canonical.Array, len(sh.Values))
		for i, raw := range sh.Values {
			v, err := canonical.FromAny(raw)
			if err != nil {
				return nil, fmt.Errorf("values[%d]: %w", i, err)
			}
			values[i] = v
		}
		m["values"] = values
	case OneOf:
		variants := make(canonical.Array, len(sh.Variants))
		for i, variant := range sh.Variants {
			v, err := variant.CanonicalValue()
			if err != nil {
				return nil, fmt.Errorf("variants[%d]: %w", i, err)
			}
			variants[i] = v
		}
		m["variants"] = variants
	case Ref:
		m["id"] = canonical.Text(sh.ID)
	default:
		return nil, fmt.Errorf("%w: shape %T", canonical.ErrUnsupported, sh)
	}
	m["type"] = canonical.Text(s.Shape.Kind())
	return m, nil
}

// MarshalCBOR lets a Schema sit inside any struct passed to the canonical
// encoder. The enclosing encode applies the final float policy.
func (s Schema) MarshalCBOR() ([]byte, error) {
	return canonical.Encode(s, canonical.FloatPermissive)
}

// wireSchema is the union of every variant's fields.
type wireSchema struct {
	Type       string                `json:"type"`
	Properties map[string]Schema     `json:"properties,omitempty"`
	Required   []string              `json:"required,omitempty"`
	Additional *AdditionalProperties `json:"additional,omitempty"`
	Items      *Schema               `json:"items,omitempty"`
	MinItems   *uint64               `json:"min_items,omitempty"`
	MaxItems   *uint64               `json:"max_items,omitempty"`
	MinLen     *uint64               `json:"min_len,omitempty"`
	MaxLen     *uint64               `json:"max_len,omitempty"`
	Regex      *string               `json:"regex,omitempty"`
	Format     *string               `json:"format,omitempty"`
	Min        cbor.RawMessage       `json:"min,omitempty"`
	Max        cbor.RawMessage       `json:"max,omitempty"`
	Values     []any                 `json:"values,omitempty"`
	Variants   []Schema              `json:"variants,omitempty"`
	ID         *string               `json:"id,omitempty"`
}

// UnmarshalCBOR decodes the internally tagged wire form. Unknown fields are
// ignored; Object fields, bounds and lists default when missing, while
// Array.items and Ref.id are required.
func (s *Schema) UnmarshalCBOR(data []byte) error {
	if bytes.Equal(data, null) {
		return &canonical.DecodeError{Err: fmt.Errorf("%w: schema is null", canonical.ErrMissingField)}
	}
	var w wireSchema
	if err := canonical.Unmarshal(data, &w); err != nil {
		return err
	}

	switch Kind(w.Type) {
	case KindObject:
		obj := Object{
			Properties: w.Properties,
			Required:   w.Required,
		}
		if obj.Properties == nil {
			obj.Properties = map[string]Schema{}
		}
		if obj.Required == nil {
			obj.Required = []string{}
		}
		if w.Additional != nil {
			obj.Additional = *w.Additional
		}
		s.Shape = obj
	case KindArray:
		if w.Items == nil {
			return missing("array", "items")
		}
		s.Shape = Array{Items: *w.Items, MinItems: w.MinItems, MaxItems: w.MaxItems}
	case KindString:
		s.Shape = String{MinLen: w.MinLen, MaxLen: w.MaxLen, Regex: w.Regex, Format: w.Format}
	case KindInt:
		var sh Int
		if err := decodeBound(w.Min, &sh.Min); err != nil {
			return err
		}
		if err := decodeBound(w.Max, &sh.Max); err != nil {
			return err
		}
		s.Shape = sh
	case KindFloat:
		var sh Float
		if err := decodeBound(w.Min, &sh.Min); err != nil {
			return err
		}
		if err := decodeBound(w.Max, &sh.Max); err != nil {
			return err
		}
		s.Shape = sh
	case KindBool:
		s.Shape = Bool{}
	case KindNull:
		s.Shape = Null{}
	case KindBytes:
		s.Shape = Bytes{}
	case KindEnum:
		values := w.Values
		if values == nil {
			values = []any{}
		}
		s.Shape = Enum{Values: values}
	case KindOneOf:
		variants := w.Variants
		if variants == nil {
			variants = []Schema{}
		}
		s.Shape = OneOf{Variants: variants}
	case KindRef:
		if w.ID == nil {
			return missing("ref", "id")
		}
		s.Shape = Ref{ID: *w.ID}
	default:
		return &canonical.DecodeError{Err: fmt.Errorf("%w: %q", ErrUnknownKind, w.Type)}
	}
	return nil
}

func missing(kind, field string) error {
	return &canonical.DecodeError{Err: fmt.Errorf("%w: %s.%s", canonical.ErrMissingField, kind, field)}
}

func decodeBound[T any](raw cbor.RawMessage, out **T) error {
	if len(raw) == 0 || bytes.Equal(raw, null) {
		return nil
	}
	var v T
	if err := canonical.Unmarshal(raw, &v); err != nil {
		return err
	}
	*out = &v
	return nil
}

// CanonicalValue lowers the policy into its adjacently tagged wire form.
func (a AdditionalProperties) CanonicalValue() (canonical.Value, error) {
	switch a.Policy {
	case AdditionalAllow, AdditionalForbid:
		return canonical.Map{"type": canonical.Text(a.Policy.String())}, nil
	case AdditionalSchema:
		if a.Schema == nil {
			return nil, fmt.Errorf("%w: additional schema", ErrNoShape)
		}
		inner, err := a.Schema.CanonicalValue()
		if err != nil {
			return nil, err
		}
		return canonical.Map{"type": canonical.Text("schema"), "schema": inner}, nil
	default:
		return nil, fmt.Errorf("%w: additional policy %d", canonical.ErrUnsupported, int(a.Policy))
	}
}

func (a AdditionalProperties) MarshalCBOR() ([]byte, error) {
	return canonical.Encode(a, canonical.FloatPermissive)
}

type wireAdditional struct {
	Type   string  `json:"type"`
	Schema *Schema `json:"schema,omitempty"`
}

func (a *AdditionalProperties) UnmarshalCBOR(data []byte) error {
	var w wireAdditional
	if err := canonical.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case "allow":
		*a = Allow()
	case "forbid":
		*a = Forbid()
	case "schema":
		if w.Schema == nil {
			return missing("additional", "schema")
		}
		*a = AdditionalOf(*w.Schema)
	default:
		return &canonical.DecodeError{Err: fmt.Errorf("%w: additional %q", ErrUnknownKind, w.Type)}
	}
	return nil
}

// Equal reports whether two schemas are structurally equal, comparing their
// canonical encodings. Enum and OneOf order is significant.
func Equal(a, b Schema) bool {
	av, err := a.CanonicalValue()
	if err != nil {
		return false
	}
	bv, err := b.CanonicalValue()
	if err != nil {
		return false
	}
	return canonical.Equal(av, bv)
}

// Decode reads a single schema from canonical bytes.
func Decode(data []byte) (Schema, error) {
	var s Schema
	if err := canonical.Unmarshal(data, &s); err != nil {
		return Schema{}, err
	}
	return s, nil
}

func optUint(p *uint64) canonical.Value {
	if p == nil {
		return canonical.Null{}
	}
	if *p > math.MaxInt64 {
		return canonical.Uint(*p)
	}
	return canonical.Int(*p)
}

func optInt(p *int64) canonical.Value {
	if p == nil {
		return canonical.Null{}
	}
	return canonical.Int(*p)
}

func optFloat(p *float64) canonical.Value {
	if p == nil {
		return canonical.Null{}
	}
	return canonical.Float(*p)
}

func optText(p *string) canonical.Value {
	if p == nil {
		return canonical.Null{}
	}
	return canonical.Text(*p)
}

// SortedProperties returns the property names of an Object in wire order.
func (o Object) SortedProperties() []string {
	names := make([]string, 0, len(o.Properties))
	for name := range o.Properties {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
