package wizard

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

const demoPlanHex = "a2646d657461a36269646864656d6f2e6e6577646d6f6465636e65776674617267657469636f6d706f6e656e746573746570" +
	"7384a2657061746873816373726364747970656a656e737572655f646972a26566696c6573a169524541444d452e6d646464" +
	"656d6f64747970656b77726974655f66696c6573a267636f6d6d616e64646d616b6564747970656772756e5f636c69a46269" +
	"646964656d6f2e666c6f77646d6f64656764656661756c746674617267657464666c6f7764747970656864656c6567617465"

func demoPlan() *Plan {
	return &Plan{
		Meta: Meta{ID: "demo.new", Target: TargetComponent, Mode: ModeNew},
		Steps: []Step{
			Of(EnsureDir{Paths: []string{"src"}}),
			Of(WriteFiles{Files: map[string]string{"README.md": "demo"}}),
			Of(RunCli{Command: "make"}),
			Of(Delegate{Target: TargetFlow, ID: "demo.flow", Mode: ModeDefault}),
		},
	}
}

func TestPlanWireForm(t *testing.T) {
	data, err := demoPlan().Encode()
	require.NoError(t, err)
	assert.Equal(t, demoPlanHex, hex.EncodeToString(data))

	decoded, err := DecodePlan(data)
	require.NoError(t, err)
	assert.Equal(t, demoPlan(), decoded)
}

func TestRunCliArgsOmittedWhenEmpty(t *testing.T) {
	data, err := canonical.Marshal(Of(RunCli{Command: "make", Args: []string{}}))
	require.NoError(t, err)
	assert.NotContains(t, hex.EncodeToString(data), hex.EncodeToString([]byte("args")))

	data, err = canonical.Marshal(Of(RunCli{Command: "make", Args: []string{"build"}}))
	require.NoError(t, err)
	assert.Equal(t, "a3646172677381656275696c6467636f6d6d616e64646d616b6564747970656772756e5f636c69", hex.EncodeToString(data))
}

func TestDelegateRoundTrip(t *testing.T) {
	plan := &Plan{
		Meta: Meta{ID: "pack.setup", Target: TargetPack, Mode: ModeSetup},
		Steps: []Step{Of(Delegate{
			Target:           TargetOperator,
			ID:               "operator.setup",
			Mode:             ModeUpdate,
			PrefilledAnswers: map[string]any{"region": "eu", "ratio": 0.5, "count": uint64(3)},
			OutputMap:        map[string]string{"endpoint": "operator_endpoint"},
		})},
	}

	data, err := plan.Encode()
	require.NoError(t, err)
	require.NoError(t, canonical.EnsureCanonical(data, canonical.FloatPermissive))

	decoded, err := DecodePlan(data)
	require.NoError(t, err)
	assert.Equal(t, plan, decoded)

	delegations := decoded.Delegations()
	require.Len(t, delegations, 1)
	assert.Equal(t, ID("operator.setup"), delegations[0].ID)
	assert.Empty(t, demoPlan().Delegations()[0].OutputMap)
}

func TestPlanDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		step    canonical.Map
		wantErr error
	}{
		{
			name:    "unknown step",
			step:    canonical.Map{"type": canonical.Text("reboot")},
			wantErr: ErrUnknownStep,
		},
		{
			name:    "missing type",
			step:    canonical.Map{"paths": canonical.Array{}},
			wantErr: canonical.ErrMissingField,
		},
		{
			name:    "missing command",
			step:    canonical.Map{"type": canonical.Text("run_cli")},
			wantErr: canonical.ErrMissingField,
		},
		{
			name: "unknown mode",
			step: canonical.Map{
				"type":   canonical.Text("delegate"),
				"target": canonical.Text("flow"),
				"id":     canonical.Text("x"),
				"mode":   canonical.Text("upgrade"),
			},
			wantErr: ErrUnknownMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := canonical.Marshal(canonical.Map{
				"meta":  canonical.Map{"id": canonical.Text("x"), "target": canonical.Text("dev"), "mode": canonical.Text("build")},
				"steps": canonical.Array{tt.step},
			})
			require.NoError(t, err)

			_, err = DecodePlan(data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEnumNames(t *testing.T) {
	assert.Equal(t, "bundle", TargetBundle.String())
	assert.Equal(t, "scaffold", ModeScaffold.String())
	assert.Equal(t, "Mode(42)", Mode(42).String())

	var target Target
	require.NoError(t, target.UnmarshalText([]byte("operator")))
	assert.Equal(t, TargetOperator, target)
	assert.ErrorIs(t, target.UnmarshalText([]byte("cluster")), ErrUnknownTarget)

	_, err := canonical.Marshal(Of(Delegate{Target: Target(9), ID: "x"}))
	assert.Error(t, err)

	_, err = canonical.Marshal(Step{})
	assert.ErrorIs(t, err, ErrNoAction)
}
