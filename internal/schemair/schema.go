// Package schemair defines the closed set of schema shapes used to describe
// component input, output and config contracts, their canonical wire form,
// and the schema fingerprint derived from an (input, output, config) triple.
//
// Shapes are a sealed interface: only the types in this package implement
// Shape. New variants require a version bump of the schema ids that embed
// them, never a silent widening.
package schemair

// Kind is the wire tag of a shape variant.
type Kind string

const (
	KindObject Kind = "object"
	KindArray  Kind = "array"
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindNull   Kind = "null"
	KindBytes  Kind = "bytes"
	KindEnum   Kind = "enum"
	KindOneOf  Kind = "one_of"
	KindRef    Kind = "ref"
)

// Shape is a sealed interface over the schema variants.
type Shape interface {
	Kind() Kind
	shape() // Sealed
}

// Schema is the encodable wrapper around one Shape.
// The zero Schema has no shape and cannot be encoded.
type Schema struct {
	Shape Shape
}

// Of wraps a shape.
func Of(s Shape) Schema {
	return Schema{Shape: s}
}

// Kind returns the wrapped shape's kind, or "" for the zero Schema.
func (s Schema) Kind() Kind {
	if s.Shape == nil {
		return ""
	}
	return s.Shape.Kind()
}

// Object describes a record. Property order on the wire is by key bytes,
// never by insertion.
type Object struct {
	Properties map[string]Schema
	Required   []string
	Additional AdditionalProperties
}

// Array describes a homogeneous sequence.
type Array struct {
	Items    Schema
	MinItems *uint64
	MaxItems *uint64
}

// String describes UTF-8 text.
type String struct {
	MinLen *uint64
	MaxLen *uint64
	Regex  *string
	Format *string
}

// Int describes a 64-bit signed integer.
type Int struct {
	Min *int64
	Max *int64
}

// Float describes a 64-bit float.
type Float struct {
	Min *float64
	Max *float64
}

type Bool struct{}

type Null struct{}

type Bytes struct{}

// Enum lists literal scalar values. Declared order is kept on the wire.
type Enum struct {
	Values []any
}

// OneOf is a union. Declared order is kept on the wire.
type OneOf struct {
	Variants []Schema
}

// Ref names another schema. It is not resolved here.
type Ref struct {
	ID string
}

func (Object) Kind() Kind { return KindObject }
func (Array) Kind() Kind  { return KindArray }
func (String) Kind() Kind { return KindString }
func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (Bool) Kind() Kind   { return KindBool }
func (Null) Kind() Kind   { return KindNull }
func (Bytes) Kind() Kind  { return KindBytes }
func (Enum) Kind() Kind   { return KindEnum }
func (OneOf) Kind() Kind  { return KindOneOf }
func (Ref) Kind() Kind    { return KindRef }

func (Object) shape() {}
func (Array) shape()  {}
func (String) shape() {}
func (Int) shape()    {}
func (Float) shape()  {}
func (Bool) shape()   {}
func (Null) shape()   {}
func (Bytes) shape()  {}
func (Enum) shape()   {}
func (OneOf) shape()  {}
func (Ref) shape()    {}

// AdditionalPolicy selects how an Object treats undeclared properties.
type AdditionalPolicy int

const (
	AdditionalAllow AdditionalPolicy = iota
	AdditionalForbid
	AdditionalSchema
)

func (p AdditionalPolicy) String() string {
	switch p {
	case AdditionalAllow:
		return "allow"
	case AdditionalForbid:
		return "forbid"
	case AdditionalSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// AdditionalProperties is the three-way additional-properties policy.
// The zero value is Allow. Schema is set only for AdditionalSchema.
type AdditionalProperties struct {
	Policy AdditionalPolicy
	Schema *Schema
}

// Allow permits undeclared properties.
func Allow() AdditionalProperties {
	return AdditionalProperties{Policy: AdditionalAllow}
}

// Forbid rejects undeclared properties.
func Forbid() AdditionalProperties {
	return AdditionalProperties{Policy: AdditionalForbid}
}

// AdditionalOf constrains undeclared properties to s.
func AdditionalOf(s Schema) AdditionalProperties {
	return AdditionalProperties{Policy: AdditionalSchema, Schema: &s}
}

// Ptr returns a pointer to v, for optional bounds.
func Ptr[T any](v T) *T {
	return &v
}
