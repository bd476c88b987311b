package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/pack"
	"github.com/greentic-ai-org/greentic-types/internal/wizard"
)

func encodeTemp(t *testing.T, name string, encode func() ([]byte, error)) string {
	t.Helper()
	data, err := encode()
	require.NoError(t, err)
	return writeTemp(t, name, data)
}

func setupOffer() pack.Offer {
	return pack.Offer{
		OfferID:       "hooks.pre.01",
		CapID:         "greentic.cap.op_hook.pre",
		Version:       "v1",
		Provider:      pack.ProviderRef{ComponentRef: "policy-hook", Op: "hook.evaluate"},
		RequiresSetup: true,
		Setup:         &pack.Setup{QaRef: "qa/hooks/policy-setup.cbor"},
	}
}

func TestValidateCommand(t *testing.T) {
	caps := pack.NewCapabilitiesV1(setupOffer())
	var exts pack.Extensions
	require.NoError(t, exts.SetCapabilitiesV1(caps))
	plan := &wizard.Plan{
		Meta: wizard.Meta{ID: "demo.new", Target: wizard.TargetComponent, Mode: wizard.ModeNew},
		Steps: []wizard.Step{
			wizard.Of(wizard.EnsureDir{Paths: []string{"src"}}),
			wizard.Of(wizard.Delegate{Target: wizard.TargetFlow, ID: "demo.flow", Mode: wizard.ModeDefault}),
		},
	}

	tests := []struct {
		as   string
		file string
		want string
	}{
		{"describe", describeFixture, "greentic.example.component 0.1.0, 1 operation(s)"},
		{"qa", qaFixture, "mode default, 0 question(s), 1 i18n key(s)"},
		{"capabilities", encodeTemp(t, "caps.cbor", caps.Encode), "1 offer(s)"},
		{"extensions", encodeTemp(t, "ext.cbor", exts.Encode), "1 extension(s), greentic.ext.capabilities.v1 with 1 offer(s)"},
		{"plan", encodeTemp(t, "plan.cbor", plan.Encode), "demo.new component/new, 2 step(s), 1 delegation(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.as, func(t *testing.T) {
			out, err := execute(t, "validate", tt.file, "--as", tt.as)
			require.NoError(t, err)
			assert.Equal(t, "✓ "+tt.file+" is a valid "+tt.as+": "+tt.want+"\n", out)
		})
	}
}

func TestValidateCommand_RuleViolations(t *testing.T) {
	offer := setupOffer()
	offer.Setup = nil
	missingSetup := encodeTemp(t, "caps.cbor", pack.NewCapabilitiesV1(offer).Encode)

	noInline := encodeTemp(t, "ext.cbor", pack.Extensions{
		pack.ExtCapabilitiesV1: {Kind: pack.ExtCapabilitiesV1, Version: "1.0.0"},
	}.Encode)

	tests := []struct {
		name string
		as   string
		file string
		want string
	}{
		{"offer without setup", "capabilities", missingSetup, "requires setup but setup is missing"},
		{"extension without inline", "extensions", noInline, "missing inline payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "validate", tt.file, "--as", tt.as)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "Error [E014]")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestValidateCommand_UnknownPlanTarget(t *testing.T) {
	src := encodeTemp(t, "plan.cbor", func() ([]byte, error) {
		return canonical.Marshal(map[string]any{
			"meta":  map[string]any{"id": "x", "target": "spaceship", "mode": "default"},
			"steps": []any{},
		})
	})

	_, err := execute(t, "validate", src, "--as", "plan")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidateCommand_WrongType(t *testing.T) {
	out, err := execute(t, "validate", qaFixture, "--as", "describe")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]")
}

func TestValidateCommand_UnknownAs(t *testing.T) {
	out, err := execute(t, "validate", qaFixture, "--as", "bogus")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E013]")
	assert.Contains(t, out, "capabilities, describe, extensions, plan, qa")
}
