package canonical

import (
	"bytes"
	"testing"

	"pgregory.net/rapid"
)

func valueGen(depth int) *rapid.Generator[Value] {
	scalars := []*rapid.Generator[Value]{
		rapid.Just[Value](Null{}),
		rapid.Custom(func(t *rapid.T) Value { return Bool(rapid.Bool().Draw(t, "bool")) }),
		rapid.Custom(func(t *rapid.T) Value { return Int(rapid.Int64().Draw(t, "int")) }),
		rapid.Custom(func(t *rapid.T) Value {
			return Uint(rapid.Uint64Min(1<<63).Draw(t, "uint"))
		}),
		rapid.Custom(func(t *rapid.T) Value { return Float(rapid.Float64().Draw(t, "float")) }),
		rapid.Custom(func(t *rapid.T) Value { return Text(rapid.String().Draw(t, "text")) }),
		rapid.Custom(func(t *rapid.T) Value {
			return Bytes(rapid.SliceOfN(rapid.Byte(), 0, 16).Draw(t, "bytes"))
		}),
	}
	if depth == 0 {
		return rapid.OneOf(scalars...)
	}
	child := valueGen(depth - 1)
	containers := append(scalars,
		rapid.Custom(func(t *rapid.T) Value {
			return Array(rapid.SliceOfN(child, 0, 4).Draw(t, "array"))
		}),
		rapid.Custom(func(t *rapid.T) Value {
			return Map(rapid.MapOfN(rapid.String(), child, 0, 4).Draw(t, "map"))
		}),
	)
	return rapid.OneOf(containers...)
}

func TestPropertyEncodeDecodeReencode(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := valueGen(3).Draw(t, "value")

		first, err := MarshalAllowFloats(v)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		decoded, err := DecodeValue(first)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		second, err := MarshalAllowFloats(decoded)
		if err != nil {
			t.Fatalf("re-encode: %v", err)
		}
		if !bytes.Equal(first, second) {
			t.Fatalf("re-encode differs:\n%x\n%x", first, second)
		}
		if err := EnsureCanonical(first, FloatPermissive); err != nil {
			t.Fatalf("ensure canonical: %v", err)
		}
	})
}

func TestPropertyMapOrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfNDistinct(rapid.String(), 1, 8, rapid.ID[string]).Draw(t, "keys")
		perm := rapid.Permutation(keys).Draw(t, "perm")

		a := make(map[string]any, len(keys))
		for i, k := range keys {
			a[k] = i
		}
		b := make(map[string]any, len(keys))
		for _, k := range perm {
			b[k] = a[k]
		}

		ea, err := Marshal(a)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		eb, err := Marshal(b)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if !bytes.Equal(ea, eb) {
			t.Fatalf("order dependent:\n%x\n%x", ea, eb)
		}
	})
}

func TestPropertyStrictNeverEmitsIntegralFloat(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64Range(-1<<52, 1<<52).Draw(t, "n")
		if _, err := Marshal(Float(float64(n))); err == nil {
			t.Fatalf("strict accepted integral float %d", n)
		}
	})
}
