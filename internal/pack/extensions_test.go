package pack

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

func TestExtensionsSetGetRoundTrip(t *testing.T) {
	payload := NewCapabilitiesV1(hookOffer())

	var ext Extensions
	require.NoError(t, ext.SetCapabilitiesV1(payload))

	loaded, err := ext.CapabilitiesV1()
	require.NoError(t, err)
	assert.Equal(t, payload, loaded)

	// Survives a trip through the wire form.
	data, err := ext.Encode()
	require.NoError(t, err)
	decoded, err := DecodeExtensions(data)
	require.NoError(t, err)
	loaded, err = decoded.CapabilitiesV1()
	require.NoError(t, err)
	assert.Equal(t, payload, loaded)
	assert.Equal(t, "1.0.0", decoded[ExtCapabilitiesV1].Version)
}

func TestExtensionsSetRejectsInvalid(t *testing.T) {
	payload := NewCapabilitiesV1(hookOffer())
	payload.Offers[0].Setup = nil

	var ext Extensions
	assert.ErrorIs(t, ext.SetCapabilitiesV1(payload), ErrMissingSetup)
	assert.Empty(t, ext)
}

func TestExtensionsAbsent(t *testing.T) {
	loaded, err := Extensions{}.CapabilitiesV1()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestExtensionsRejectsProviderInline(t *testing.T) {
	ext := Extensions{ExtCapabilitiesV1: {
		Kind:    ExtCapabilitiesV1,
		Version: "1.0.0",
		Inline:  &Inline{Provider: &ProviderInline{}},
	}}

	_, err := ext.CapabilitiesV1()
	require.ErrorIs(t, err, ErrUnexpectedInline)
	assert.Contains(t, err.Error(), "unexpected type")
}

func TestExtensionsMissingInline(t *testing.T) {
	location := "extensions/capabilities.cbor"
	ext := Extensions{ExtCapabilitiesV1: {Kind: ExtCapabilitiesV1, Version: "1.0.0", Location: &location}}

	_, err := ext.CapabilitiesV1()
	assert.ErrorIs(t, err, ErrMissingInline)
}

func TestInlineWireForm(t *testing.T) {
	data, err := canonical.Marshal(Inline{Provider: &ProviderInline{}})
	require.NoError(t, err)
	assert.Equal(t, "a16870726f7669646572a16970726f76696465727380", hex.EncodeToString(data))

	var in Inline
	require.NoError(t, canonical.Unmarshal(data, &in))
	require.NotNil(t, in.Provider)
	assert.Empty(t, in.Provider.Providers)
	assert.Nil(t, in.Other)

	_, err = canonical.Marshal(Inline{})
	assert.ErrorIs(t, err, ErrInlineShape)
}

func TestInlineDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		value canonical.Value
	}{
		{"both keys", canonical.Map{"provider": canonical.Map{}, "other": canonical.Int(1)}},
		{"unknown key", canonical.Map{"remote": canonical.Text("x")}},
		{"not a map", canonical.Array{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := canonical.Marshal(tt.value)
			require.NoError(t, err)

			var in Inline
			err = canonical.Unmarshal(data, &in)
			assert.ErrorIs(t, err, ErrInlineShape)
			var decErr *canonical.DecodeError
			assert.ErrorAs(t, err, &decErr)
		})
	}
}
