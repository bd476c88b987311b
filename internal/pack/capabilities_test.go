package pack

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

const hookPayloadHex = "a2666f666665727381a7666361705f69647818677265656e7469632e6361702e6f705f686f6f6b2e707265686f666665725f" +
	"69646c686f6f6b732e7072652e3031687072696f726974790a6870726f7669646572a26d636f6d706f6e656e745f7265666b" +
	"706f6c6963792d686f6f6b626f706d686f6f6b2e6576616c756174656e72657175697265735f7365747570f5657365747570" +
	"a16671615f726566781a71612f686f6f6b732f706f6c6963792d73657475702e63626f726776657273696f6e6276316e7363" +
	"68656d615f76657273696f6e01"

func hookOffer() Offer {
	return Offer{
		OfferID:       "hooks.pre.01",
		CapID:         "greentic.cap.op_hook.pre",
		Version:       "v1",
		Provider:      ProviderRef{ComponentRef: "policy-hook", Op: "hook.evaluate"},
		Priority:      10,
		RequiresSetup: true,
		Setup:         &Setup{QaRef: "qa/hooks/policy-setup.cbor"},
	}
}

func TestCapabilitiesWireForm(t *testing.T) {
	payload := NewCapabilitiesV1(hookOffer())

	data, err := payload.Encode()
	require.NoError(t, err)
	assert.Equal(t, hookPayloadHex, hex.EncodeToString(data))

	decoded, err := DecodeCapabilitiesV1(data)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestCapabilitiesDefaults(t *testing.T) {
	data, err := canonical.Marshal(map[string]any{
		"schema_version": 1,
		"offers": []any{map[string]any{
			"offer_id": "memory.01",
			"cap_id":   "greentic.cap.memory.shortterm",
			"version":  "v1",
			"provider": map[string]any{"component_ref": "memory-provider", "op": "cap.invoke"},
		}},
	})
	require.NoError(t, err)

	decoded, err := DecodeCapabilitiesV1(data)
	require.NoError(t, err)
	require.Len(t, decoded.Offers, 1)
	assert.Equal(t, int32(0), decoded.Offers[0].Priority)
	assert.False(t, decoded.Offers[0].RequiresSetup)
	assert.Nil(t, decoded.Offers[0].Scope)
}

func TestCapabilitiesMissingProvider(t *testing.T) {
	data, err := canonical.Marshal(map[string]any{
		"schema_version": 1,
		"offers":         []any{map[string]any{"offer_id": "x", "cap_id": "c", "version": "v1"}},
	})
	require.NoError(t, err)

	_, err = DecodeCapabilitiesV1(data)
	assert.ErrorIs(t, err, canonical.ErrMissingField)
	assert.Contains(t, err.Error(), "$.offers[0].provider")
}

func TestCapabilitiesValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CapabilitiesV1)
		wantErr error
		text    string
	}{
		{
			name:    "unsupported version",
			mutate:  func(c *CapabilitiesV1) { c.SchemaVersion = 2 },
			wantErr: ErrUnsupportedVersion,
			text:    "schema_version 2",
		},
		{
			name:    "requires setup",
			mutate:  func(c *CapabilitiesV1) { c.Offers[0].Setup = nil },
			wantErr: ErrMissingSetup,
			text:    `offer "hooks.pre.01" requires setup`,
		},
		{
			name:    "blank qa_ref",
			mutate:  func(c *CapabilitiesV1) { c.Offers[0].Setup = &Setup{QaRef: "  \t"} },
			wantErr: ErrInvalidSetupQaRef,
			text:    "empty setup.qa_ref",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := NewCapabilitiesV1(hookOffer())
			tt.mutate(payload)

			err := payload.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.text)

			// The decoder validates too.
			data, encErr := payload.Encode()
			require.NoError(t, encErr)
			_, err = DecodeCapabilitiesV1(data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.NoError(t, NewCapabilitiesV1().Validate())
}

func TestCandidatesOrder(t *testing.T) {
	mk := func(id string, prio int32) Offer {
		return Offer{OfferID: id, CapID: "cap.a", Version: "v1", Priority: prio}
	}
	other := Offer{OfferID: "z", CapID: "cap.b", Version: "v1"}
	payload := NewCapabilitiesV1(mk("b", 5), other, mk("c", -1), mk("a", 5))

	var ids []string
	for _, o := range payload.Candidates("cap.a") {
		ids = append(ids, o.OfferID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Empty(t, payload.Candidates("cap.none"))
}

func TestScopeAndAppliesTo(t *testing.T) {
	var none *Scope
	assert.True(t, none.Allows("prod", "acme", "core"))

	s := &Scope{Envs: []string{"prod"}, Teams: []string{"core", "ops"}}
	assert.True(t, s.Allows("prod", "anyone", "ops"))
	assert.False(t, s.Allows("dev", "anyone", "ops"))
	assert.False(t, s.Allows("prod", "anyone", "sales"))

	o := hookOffer()
	assert.True(t, o.AppliesToOp("anything"))
	o.AppliesTo = &AppliesTo{OpNames: []string{"run"}}
	assert.True(t, o.AppliesToOp("run"))
	assert.False(t, o.AppliesToOp("describe"))
}
