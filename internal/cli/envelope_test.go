package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// qaEnvelopeHex is the default QA fixture wrapped as kind "qa".
const qaEnvelopeHex = "a464626f64795868a56864656661756c7473a06b6465736372697074696f6ef6646d6f64656764656661756c74697175657374696f6e7380657469746c65a26866616c6c6261636b6744656661756c74636b6579781a636f6d706f6e656e742e71612e64656661756c742e7469746c65646b696e6462716169736368656d615f6964781b677265656e7469632e636f6d706f6e656e742e716140302e362e306e736368656d615f76657273696f6e06"

func TestEnvelopeWrap(t *testing.T) {
	out, err := execute(t, "envelope", "wrap", qaFixture, "--kind", "qa", "--returns", "component-qa.qa-spec")
	require.NoError(t, err)
	assert.Equal(t, qaEnvelopeHex+"\n", out)

	// The schema id alone is enough for a known component schema.
	out, err = execute(t, "envelope", "wrap", qaFixture, "--kind", "qa", "--schema-id", "greentic.component.qa@0.6.0")
	require.NoError(t, err)
	assert.Equal(t, qaEnvelopeHex+"\n", out)
}

func TestEnvelopeWrap_Output(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "qa.env")

	out, err := execute(t, "envelope", "wrap", qaFixture, "--kind", "qa", "--returns", "component-qa.qa-spec", "-o", dst)
	require.NoError(t, err)
	assert.Equal(t, "Wrote qa greentic.component.qa@0.6.0 v6 (104 body bytes) to "+dst+"\n", out)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, qaEnvelopeHex), data)
}

func TestEnvelopeWrap_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no schema", []string{"--kind", "qa"}, "--schema-id or --returns is required"},
		{"bad returns", []string{"--kind", "qa", "--returns", "qa-spec"}, "must be <interface>.<func>"},
		{"unknown export", []string{"--kind", "qa", "--returns", "component-qa.nope"}, "has no component-qa.nope export"},
		{"unknown schema version", []string{"--kind", "c", "--schema-id", "acme.config"}, "--schema-version is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"envelope", "wrap", qaFixture}, tt.args...)
			out, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error [E013]")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestEnvelopeWrap_NonCanonicalBody(t *testing.T) {
	src := writeTemp(t, "body.cbor", mustHex(t, "a2616201616101"))

	out, err := execute(t, "envelope", "wrap", src, "--kind", "c", "--schema-id", "acme.config", "--schema-version", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]")
}

func TestEnvelopeCheck(t *testing.T) {
	src := writeTemp(t, "qa.env", mustHex(t, qaEnvelopeHex))

	out, err := execute(t, "envelope", "check", src)
	require.NoError(t, err)
	assert.Equal(t, "✓ qa greentic.component.qa@0.6.0 v6 (104 body bytes)\n", out)

	_, err = execute(t, "envelope", "check", src, "--schema-id", "greentic.component.qa@0.6.0", "--schema-version", "6")
	require.NoError(t, err)

	out, err = execute(t, "envelope", "check", src, "--schema-id", "greentic.component.describe@0.6.0")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E012]")

	_, err = execute(t, "envelope", "check", src, "--schema-id", "greentic.component.qa@0.6.0", "--schema-version", "7")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestEnvelopeCheck_NotAnEnvelope(t *testing.T) {
	src := writeTemp(t, "body.cbor", mustHex(t, "a26161016162f6"))

	_, err := execute(t, "envelope", "check", src)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestEnvelopeShow(t *testing.T) {
	src := writeTemp(t, "qa.env", mustHex(t, qaEnvelopeHex))

	out, err := execute(t, "--format", "json", "envelope", "show", src)
	require.NoError(t, err)

	resp := decodeResponse[EnvelopeResult](t, out)
	assert.Equal(t, "qa", resp.Data.Kind)
	assert.Equal(t, "greentic.component.qa@0.6.0", resp.Data.SchemaID)
	assert.Equal(t, uint32(6), resp.Data.SchemaVersion)
	assert.Equal(t, 104, resp.Data.BodySize)
	assert.Contains(t, resp.Data.Body, `"mode": "default"`)
}
