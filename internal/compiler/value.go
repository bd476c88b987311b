package compiler

import (
	"cuelang.org/go/cue"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

// CompileValue converts a concrete CUE value into the canonical value model.
//
// Integer literals become Int (or Uint above MaxInt64); decimal literals
// become Float even when integral, so "1.0" stays a float and is rejected
// by a strict encode. Definitions, hidden and optional fields are skipped.
func CompileValue(v cue.Value) (canonical.Value, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if d, ok := v.Default(); ok {
		v = d
	}

	switch v.Kind() {
	case cue.NullKind:
		return canonical.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return canonical.Bool(b), nil
	case cue.IntKind:
		if i, err := v.Int64(); err == nil {
			return canonical.Int(i), nil
		}
		if u, err := v.Uint64(); err == nil {
			return canonical.Uint(u), nil
		}
		return nil, errorAt(v, canonical.ErrIntRange, "integer outside [-2^63, 2^64-1]")
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, errorAt(v, err, "float out of range")
		}
		return canonical.Float(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return canonical.Text(s), nil
	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return canonical.Bytes(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := canonical.Array{}
		for iter.Next() {
			elem, err := CompileValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := canonical.Map{}
		for iter.Next() {
			elem, err := CompileValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Selector().Unquoted()] = elem
		}
		return out, nil
	}
	return nil, errorAt(v, nil, "value is not concrete")
}

// CompileFile loads a document and compiles it to a canonical value.
func CompileFile(path string) (canonical.Value, error) {
	v, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return CompileValue(v)
}
