package compiler

import (
	"cuelang.org/go/cue"

	"github.com/greentic-ai-org/greentic-types/internal/schemair"
)

// Triple is an authored (input, output, config) schema set.
type Triple struct {
	Input  schemair.Schema
	Output schemair.Schema
	Config schemair.Schema
}

// Fingerprint returns the triple's schema fingerprint.
func (t Triple) Fingerprint() (string, error) {
	return schemair.Fingerprint(t.Input, t.Output, t.Config)
}

// CompileTriple compiles a document with input, output and config schemas.
func CompileTriple(v cue.Value) (Triple, error) {
	var t Triple
	for _, f := range []struct {
		name string
		dst  *schemair.Schema
	}{
		{"input", &t.Input},
		{"output", &t.Output},
		{"config", &t.Config},
	} {
		fv := v.LookupPath(cue.ParsePath(f.name))
		if !fv.Exists() {
			return Triple{}, errorAt(v, nil, "%s is required", f.name)
		}
		s, err := CompileSchema(fv)
		if err != nil {
			return Triple{}, err
		}
		*f.dst = s
	}
	return t, nil
}

var shorthand = map[string]schemair.Shape{
	"string": schemair.String{},
	"int":    schemair.Int{},
	"float":  schemair.Float{},
	"bool":   schemair.Bool{},
	"null":   schemair.Null{},
	"bytes":  schemair.Bytes{},
	"object": schemair.Object{Properties: map[string]schemair.Schema{}, Required: []string{}},
}

// CompileSchema compiles an authored schema. The authored form mirrors the
// wire form ({type: "object", properties: {...}, ...}); a bare kind name
// such as "string" is shorthand for that kind with no constraints.
func CompileSchema(v cue.Value) (schemair.Schema, error) {
	if err := v.Err(); err != nil {
		return schemair.Schema{}, formatCUEError(err)
	}
	if name, err := v.String(); err == nil {
		sh, ok := shorthand[name]
		if !ok {
			return schemair.Schema{}, errorAt(v, schemair.ErrUnknownKind, "unknown schema kind %q", name)
		}
		return schemair.Of(sh), nil
	}
	if v.Kind() != cue.StructKind {
		return schemair.Schema{}, errorAt(v, nil, "schema must be a kind name or a struct")
	}

	kind, err := requiredString(v, "type")
	if err != nil {
		return schemair.Schema{}, err
	}

	var sh schemair.Shape
	switch kind {
	case "object":
		sh, err = compileObject(v)
	case "array":
		var a schemair.Array
		items := v.LookupPath(cue.ParsePath("items"))
		if !items.Exists() {
			return schemair.Schema{}, errorAt(v, nil, "items is required")
		}
		if a.Items, err = CompileSchema(items); err != nil {
			return schemair.Schema{}, err
		}
		if a.MinItems, err = optUint(v, "min_items"); err != nil {
			return schemair.Schema{}, err
		}
		a.MaxItems, err = optUint(v, "max_items")
		sh = a
	case "string":
		var s schemair.String
		if s.MinLen, err = optUint(v, "min_len"); err != nil {
			return schemair.Schema{}, err
		}
		if s.MaxLen, err = optUint(v, "max_len"); err != nil {
			return schemair.Schema{}, err
		}
		if s.Regex, err = optString(v, "regex"); err != nil {
			return schemair.Schema{}, err
		}
		s.Format, err = optString(v, "format")
		sh = s
	case "int":
		var i schemair.Int
		if i.Min, err = optInt(v, "min"); err != nil {
			return schemair.Schema{}, err
		}
		i.Max, err = optInt(v, "max")
		sh = i
	case "float":
		var f schemair.Float
		if f.Min, err = optFloat(v, "min"); err != nil {
			return schemair.Schema{}, err
		}
		f.Max, err = optFloat(v, "max")
		sh = f
	case "bool":
		sh = schemair.Bool{}
	case "null":
		sh = schemair.Null{}
	case "bytes":
		sh = schemair.Bytes{}
	case "enum":
		sh, err = compileEnum(v)
	case "one_of":
		var variants []schemair.Schema
		variants, err = schemaList(v, "variants")
		sh = schemair.OneOf{Variants: variants}
	case "ref":
		var id string
		id, err = requiredString(v, "id")
		sh = schemair.Ref{ID: id}
	default:
		return schemair.Schema{}, errorAt(v.LookupPath(cue.ParsePath("type")), schemair.ErrUnknownKind, "unknown schema kind %q", kind)
	}
	if err != nil {
		return schemair.Schema{}, err
	}
	return schemair.Of(sh), nil
}

func compileObject(v cue.Value) (schemair.Shape, error) {
	obj := schemair.Object{Properties: map[string]schemair.Schema{}, Required: []string{}}

	if props := v.LookupPath(cue.ParsePath("properties")); present(props) {
		iter, err := props.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			s, err := CompileSchema(iter.Value())
			if err != nil {
				return nil, err
			}
			obj.Properties[iter.Selector().Unquoted()] = s
		}
	}

	if req := v.LookupPath(cue.ParsePath("required")); present(req) {
		iter, err := req.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name, err := iter.Value().String()
			if err != nil {
				return nil, errorAt(iter.Value(), err, "required entries must be strings")
			}
			if _, ok := obj.Properties[name]; !ok {
				return nil, errorAt(iter.Value(), nil, "required property %q is not declared", name)
			}
			obj.Required = append(obj.Required, name)
		}
	}

	add := v.LookupPath(cue.ParsePath("additional"))
	if !present(add) {
		return obj, nil
	}
	if policy, err := add.String(); err == nil {
		switch policy {
		case "allow":
			obj.Additional = schemair.Allow()
			return obj, nil
		case "forbid":
			obj.Additional = schemair.Forbid()
			return obj, nil
		}
		// A bare kind name such as "int" is a schema shorthand.
		if _, ok := shorthand[policy]; !ok {
			return nil, errorAt(add, nil, "additional must be allow, forbid or a schema, got %q", policy)
		}
	}
	if t, err := add.LookupPath(cue.ParsePath("type")).String(); err == nil && (t == "allow" || t == "forbid") {
		if t == "forbid" {
			obj.Additional = schemair.Forbid()
		}
		return obj, nil
	}
	// {type: "schema", schema: ...} or a bare schema.
	target := add
	if t, _ := add.LookupPath(cue.ParsePath("type")).String(); t == "schema" {
		target = add.LookupPath(cue.ParsePath("schema"))
		if !target.Exists() {
			return nil, errorAt(add, nil, "schema is required")
		}
	}
	s, err := CompileSchema(target)
	if err != nil {
		return nil, err
	}
	obj.Additional = schemair.AdditionalOf(s)
	return obj, nil
}

func compileEnum(v cue.Value) (schemair.Shape, error) {
	values := v.LookupPath(cue.ParsePath("values"))
	if !values.Exists() {
		return nil, errorAt(v, nil, "values is required")
	}
	iter, err := values.List()
	if err != nil {
		return nil, errorAt(values, err, "values must be a list")
	}
	e := schemair.Enum{Values: []any{}}
	for iter.Next() {
		val, err := CompileValue(iter.Value())
		if err != nil {
			return nil, err
		}
		e.Values = append(e.Values, val)
	}
	return e, nil
}

func schemaList(v cue.Value, name string) ([]schemair.Schema, error) {
	list := v.LookupPath(cue.ParsePath(name))
	if !list.Exists() {
		return nil, errorAt(v, nil, "%s is required", name)
	}
	iter, err := list.List()
	if err != nil {
		return nil, errorAt(list, err, "%s must be a list", name)
	}
	out := []schemair.Schema{}
	for iter.Next() {
		s, err := CompileSchema(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// present reports whether a field exists and is not null.
func present(v cue.Value) bool {
	return v.Exists() && !v.IsNull()
}

func requiredString(v cue.Value, name string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", errorAt(v, nil, "%s is required", name)
	}
	s, err := fv.String()
	if err != nil {
		return "", errorAt(fv, err, "%s must be a string", name)
	}
	return s, nil
}

func optString(v cue.Value, name string) (*string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !present(fv) {
		return nil, nil
	}
	s, err := fv.String()
	if err != nil {
		return nil, errorAt(fv, err, "%s must be a string", name)
	}
	return &s, nil
}

func optUint(v cue.Value, name string) (*uint64, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !present(fv) {
		return nil, nil
	}
	u, err := fv.Uint64()
	if err != nil {
		return nil, errorAt(fv, err, "%s must be a non-negative integer", name)
	}
	return &u, nil
}

func optInt(v cue.Value, name string) (*int64, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !present(fv) {
		return nil, nil
	}
	i, err := fv.Int64()
	if err != nil {
		return nil, errorAt(fv, err, "%s must be an integer", name)
	}
	return &i, nil
}

func optFloat(v cue.Value, name string) (*float64, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !present(fv) {
		return nil, nil
	}
	f, err := fv.Float64()
	if err != nil {
		return nil, errorAt(fv, err, "%s must be a number", name)
	}
	return &f, nil
}
