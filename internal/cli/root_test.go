package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// response decodes one JSON CLIResponse with a typed payload.
type response[T any] struct {
	Status string    `json:"status"`
	Data   T         `json:"data"`
	Error  *CLIError `json:"error"`
}

func decodeResponse[T any](t *testing.T, out string) response[T] {
	t.Helper()
	var resp response[T]
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

// writeTemp writes data to name inside a fresh temp dir.
func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "greentic-types", cmd.Use)
	assert.Contains(t, cmd.Long, "canonical form")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"encode"}, {"diag"}, {"check"}, {"fingerprint"},
		{"describe", "verify"},
		{"envelope", "wrap"}, {"envelope", "check"}, {"envelope", "show"},
		{"fixtures"},
		{"store", "put"}, {"store", "get"}, {"store", "list"},
		{"conformance"}, {"wit"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestOutputFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{{"encode"}, {"envelope", "wrap"}, {"store", "get"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err)
		outputFlag := sub.Flags().Lookup("output")
		require.NotNil(t, outputFlag, "%v", path)
		assert.Equal(t, "o", outputFlag.Shorthand)
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, err := execute(t, "--format", "invalid", "wit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestUsageErrorExitCode(t *testing.T) {
	_, err := execute(t, "encode")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDatabasePath(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(EnvDatabase, "/env.db")
		opts := &RootOptions{Database: "/flag.db"}
		path, err := opts.databasePath()
		require.NoError(t, err)
		assert.Equal(t, "/flag.db", path)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(EnvDatabase, "/env.db")
		path, err := (&RootOptions{}).databasePath()
		require.NoError(t, err)
		assert.Equal(t, "/env.db", path)
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv(EnvDatabase, "")
		_, err := (&RootOptions{}).databasePath()
		require.Error(t, err)
		assert.Contains(t, err.Error(), EnvDatabase)
	})
}
