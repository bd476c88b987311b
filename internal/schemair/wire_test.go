package schemair

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

func encode(t *testing.T, s Schema) string {
	t.Helper()
	data, err := canonical.Marshal(s)
	require.NoError(t, err)
	return hex.EncodeToString(data)
}

func decodeHex(t *testing.T, h string) (Schema, error) {
	t.Helper()
	data, err := hex.DecodeString(h)
	require.NoError(t, err)
	return Decode(data)
}

func TestSchemaWireForm(t *testing.T) {
	tests := []struct {
		name     string
		schema   Schema
		expected string
	}{
		{"bool", Of(Bool{}), "a1647479706564626f6f6c"},
		{
			"array with bounds",
			Of(Array{Items: Of(Bool{}), MinItems: Ptr[uint64](1)}),
			"a4656974656d73a1647479706564626f6f6c696d61785f6974656d73f6696d696e5f6974656d73016474797065656172726179",
		},
		{"float bound", Of(Float{Min: Ptr(0.5)}), "a3636d6178f6636d696ef93800647479706565666c6f6174"},
		{"enum keeps order", Of(Enum{Values: []any{"b", "a", 1}}), "a2647479706564656e756d6676616c756573836162616101"},
		{"ref", Of(Ref{ID: "x"}), "a26269646178647479706563726566"},
		{
			"empty object",
			Of(Object{}),
			"a46a6164646974696f6e616ca1647479706565616c6c6f776a70726f70657274696573a0687265717569726564806474797065666f626a656374",
		},
		{
			"additional schema",
			Of(Object{Additional: AdditionalOf(Of(Int{}))}),
			"a46a6164646974696f6e616ca266736368656d61a3636d6178f6636d696ef6647479706563696e74647479706566736368656d616a70726f70657274696573a0687265717569726564806474797065666f626a656374",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, encode(t, tt.schema))

			decoded, err := decodeHex(t, tt.expected)
			require.NoError(t, err)
			assert.True(t, Equal(tt.schema, decoded))
			assert.Equal(t, tt.expected, encode(t, decoded))
		})
	}
}

func TestSchemaRoundTripAllKinds(t *testing.T) {
	schemas := []Schema{
		Of(Object{
			Properties: map[string]Schema{
				"name":  Of(String{MinLen: Ptr[uint64](1), MaxLen: Ptr[uint64](64), Regex: Ptr("^[a-z]+$"), Format: Ptr("slug")}),
				"count": Of(Int{Min: Ptr[int64](-5), Max: Ptr[int64](math.MaxInt64)}),
				"ratio": Of(Float{Min: Ptr(0.25), Max: Ptr(99.5)}),
			},
			Required:   []string{"name", "count"},
			Additional: Forbid(),
		}),
		Of(Array{Items: Of(Bytes{}), MaxItems: Ptr[uint64](math.MaxUint64)}),
		Of(Null{}),
		Of(OneOf{Variants: []Schema{Of(Null{}), Of(Ref{ID: "greentic.common.id"})}}),
		Of(Enum{Values: []any{"x", true, nil, -3, 0.5}}),
	}

	for _, s := range schemas {
		t.Run(string(s.Kind()), func(t *testing.T) {
			data, err := canonical.Marshal(s)
			require.NoError(t, err)

			decoded, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, s.Kind(), decoded.Kind())

			again, err := canonical.Marshal(decoded)
			require.NoError(t, err)
			assert.Equal(t, data, again)
			assert.NoError(t, canonical.EnsureCanonical(data, canonical.FloatStrict))
		})
	}
}

func TestOneOfOrderIsSignificant(t *testing.T) {
	a := Of(OneOf{Variants: []Schema{Of(Null{}), Of(Bool{})}})
	b := Of(OneOf{Variants: []Schema{Of(Bool{}), Of(Null{})}})
	assert.False(t, Equal(a, b))
	assert.NotEqual(t, encode(t, a), encode(t, b))
}

func TestPropertyOrderIsNot(t *testing.T) {
	a := Of(Object{Properties: map[string]Schema{}})
	b := Of(Object{Properties: map[string]Schema{}})
	for _, k := range []string{"zeta", "alpha", "mid"} {
		a.Shape.(Object).Properties[k] = Of(Bool{})
	}
	for _, k := range []string{"mid", "zeta", "alpha"} {
		b.Shape.(Object).Properties[k] = Of(Bool{})
	}
	assert.Equal(t, encode(t, a), encode(t, b))
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, a.Shape.(Object).SortedProperties())
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	s, err := decodeHex(t, "a366667574757265f5676d696e5f6c656e01647479706566737472696e67")
	require.NoError(t, err)
	assert.True(t, Equal(Of(String{MinLen: Ptr[uint64](1)}), s))
}

func TestDecodeObjectDefaults(t *testing.T) {
	data, err := canonical.Marshal(canonical.Map{"type": canonical.Text("object")})
	require.NoError(t, err)

	s, err := Decode(data)
	require.NoError(t, err)
	obj, ok := s.Shape.(Object)
	require.True(t, ok)
	assert.Empty(t, obj.Properties)
	assert.Empty(t, obj.Required)
	assert.Equal(t, AdditionalAllow, obj.Additional.Policy)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unknown kind", "a16474797065657475706c65", ErrUnknownKind},
		{"array without items", "a16474797065656172726179", canonical.ErrMissingField},
		{"ref without id", "a1647479706563726566", canonical.ErrMissingField},
		{"missing type", "a1636d696e01", canonical.ErrMissingField},
		{"null", "f6", canonical.ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeHex(t, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var decErr *canonical.DecodeError
			assert.ErrorAs(t, err, &decErr)
		})
	}
}

func TestEncodeZeroSchemaFails(t *testing.T) {
	_, err := canonical.Marshal(Schema{})
	assert.ErrorIs(t, err, ErrNoShape)

	_, err = canonical.Marshal(Of(Array{}))
	assert.ErrorIs(t, err, ErrNoShape)
}

func TestSchemaInsideStruct(t *testing.T) {
	type holder struct {
		Schema Schema `json:"schema"`
	}
	data, err := canonical.Marshal(holder{Schema: Of(Bool{})})
	require.NoError(t, err)
	assert.Equal(t, "a166736368656d61a1647479706564626f6f6c", hex.EncodeToString(data))

	var out holder
	require.NoError(t, canonical.Unmarshal(data, &out))
	assert.Equal(t, KindBool, out.Schema.Kind())
}

func TestAdditionalPolicyString(t *testing.T) {
	assert.Equal(t, "allow", AdditionalAllow.String())
	assert.Equal(t, "forbid", AdditionalForbid.String())
	assert.Equal(t, "schema", AdditionalSchema.String())
}
