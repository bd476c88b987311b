package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/contracts"
	"github.com/greentic-ai-org/greentic-types/internal/envelope"
)

// EnvelopeResult describes an envelope header in command output.
type EnvelopeResult struct {
	File          string `json:"file"`
	Kind          string `json:"kind"`
	SchemaID      string `json:"schema_id"`
	SchemaVersion uint32 `json:"schema_version"`
	BodySize      int    `json:"body_size"`
	Body          string `json:"body,omitempty"` // diagnostic notation
}

func envelopeResult(path string, env *envelope.Envelope) EnvelopeResult {
	return EnvelopeResult{
		File:          path,
		Kind:          env.Kind,
		SchemaID:      env.SchemaID,
		SchemaVersion: env.SchemaVersion,
		BodySize:      len(env.Body),
	}
}

// NewEnvelopeCommand creates the envelope command group.
func NewEnvelopeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envelope",
		Short: "Wrap, check and show versioned envelopes",
	}
	cmd.AddCommand(newEnvelopeWrapCommand(rootOpts))
	cmd.AddCommand(newEnvelopeCheckCommand(rootOpts))
	cmd.AddCommand(newEnvelopeShowCommand(rootOpts))
	return cmd
}

// EnvelopeWrapOptions holds flags for envelope wrap.
type EnvelopeWrapOptions struct {
	*RootOptions
	Kind          string
	SchemaID      string
	SchemaVersion uint32
	Returns       string // interface.func from the component world
	AllowFloats   bool
	Output        string
}

func newEnvelopeWrapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EnvelopeWrapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "wrap <payload.cbor>",
		Short: "Wrap a canonical payload in an envelope",
		Long: `Wrap canonical payload bytes with a kind, schema id and schema version.

The schema can be named directly, or taken from the component world with
--returns <interface>.<func>. When only --schema-id is given and the id is
a known component schema, its version is filled in.

Examples:
  greentic-types envelope wrap qa.cbor --kind qa --returns component-qa.qa-spec -o qa.env
  greentic-types envelope wrap body.cbor --kind config --schema-id acme.config --schema-version 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvelopeWrap(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "envelope kind (required)")
	cmd.Flags().StringVar(&opts.SchemaID, "schema-id", "", "schema id of the body")
	cmd.Flags().Uint32Var(&opts.SchemaVersion, "schema-version", 0, "schema version of the body")
	cmd.Flags().StringVar(&opts.Returns, "returns", "", "take the schema from a component export, e.g. component-qa.qa-spec")
	cmd.Flags().BoolVar(&opts.AllowFloats, "allow-floats", false, "accept a body that is canonical under the permissive policy")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the envelope to a file")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

// resolveSchema fills in the schema id and version from the flags.
func (o *EnvelopeWrapOptions) resolveSchema() (string, uint32, error) {
	if o.Returns != "" {
		iface, fn, ok := strings.Cut(o.Returns, ".")
		if !ok {
			return "", 0, fmt.Errorf("--returns must be <interface>.<func>, got %q", o.Returns)
		}
		ret, found := contracts.Lookup(iface, fn)
		if !found {
			return "", 0, fmt.Errorf("%s has no %s.%s export", contracts.ComponentWorld, iface, fn)
		}
		return ret.SchemaID, ret.Version, nil
	}
	if o.SchemaID == "" {
		return "", 0, fmt.Errorf("--schema-id or --returns is required")
	}
	if o.SchemaVersion != 0 {
		return o.SchemaID, o.SchemaVersion, nil
	}
	if v, ok := contracts.SchemaVersion(o.SchemaID); ok {
		return o.SchemaID, v, nil
	}
	return "", 0, fmt.Errorf("--schema-version is required for %s", o.SchemaID)
}

func runEnvelopeWrap(opts *EnvelopeWrapOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	schemaID, version, err := opts.resolveSchema()
	if err != nil {
		_ = formatter.Error(ErrCodeUsage, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeUsage, err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return fail(formatter, err)
	}
	if err := canonical.EnsureCanonical(body, policyFlag(opts.AllowFloats)); err != nil {
		return fail(formatter, err)
	}

	env := &envelope.Envelope{Kind: opts.Kind, SchemaID: schemaID, SchemaVersion: version, Body: body}
	data, err := env.Marshal()
	if err != nil {
		return fail(formatter, err)
	}
	formatter.VerboseLog("Wrapped %s as %s", path, env)

	if opts.Output != "" {
		if err := writeFile(formatter, opts.Output, data); err != nil {
			return err
		}
	}

	result := envelopeResult(opts.Output, env)
	return formatter.Result(result, func(w io.Writer) {
		if opts.Output == "" {
			fmt.Fprintf(w, "%x\n", data)
			return
		}
		fmt.Fprintf(w, "Wrote %s to %s\n", env, opts.Output)
	})
}

func newEnvelopeCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		schemaID    string
		version     uint32
		allowFloats bool
	)

	cmd := &cobra.Command{
		Use:   "check <envelope.cbor>",
		Short: "Check an envelope and its body are canonical",
		Long: `Decode an envelope, then require both the envelope bytes and its body to
be in canonical form. With --schema-id the header must also name that
schema (and --schema-version, when given).

Exit codes:
  0 - Valid
  1 - Not canonical, undecodable, or a different schema
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fail(formatter, err)
			}
			env, err := envelope.Decode(data)
			if err != nil {
				return fail(formatter, err)
			}
			if err := canonical.EnsureCanonical(data, canonical.FloatStrict); err != nil {
				return fail(formatter, fmt.Errorf("envelope: %w", err))
			}
			if allowFloats {
				err = canonical.EnsureCanonical(env.Body, canonical.FloatPermissive)
			} else {
				err = env.EnsureCanonical()
			}
			if err != nil {
				return fail(formatter, err)
			}
			if schemaID != "" {
				want := version
				if want == 0 {
					want = env.SchemaVersion
				}
				if err := env.Expect(schemaID, want); err != nil {
					return fail(formatter, err)
				}
			}

			result := envelopeResult(args[0], env)
			return formatter.Result(result, func(w io.Writer) {
				fmt.Fprintf(w, "✓ %s\n", env)
			})
		},
	}

	cmd.Flags().StringVar(&schemaID, "schema-id", "", "require this schema id")
	cmd.Flags().Uint32Var(&version, "schema-version", 0, "require this schema version")
	cmd.Flags().BoolVar(&allowFloats, "allow-floats", false, "check the body under the permissive policy")
	return cmd
}

func newEnvelopeShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <envelope.cbor>",
		Short:         "Show an envelope header and body",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fail(formatter, err)
			}
			env, err := envelope.Decode(data)
			if err != nil {
				return fail(formatter, err)
			}
			diag, err := canonical.Diagnose(env.Body)
			if err != nil {
				return fail(formatter, err)
			}

			result := envelopeResult(args[0], env)
			result.Body = diag
			return formatter.Result(result, func(w io.Writer) {
				fmt.Fprintf(w, "kind:           %s\n", env.Kind)
				fmt.Fprintf(w, "schema_id:      %s\n", env.SchemaID)
				fmt.Fprintf(w, "schema_version: %d\n", env.SchemaVersion)
				fmt.Fprintf(w, "body:           %s\n", diag)
			})
		},
	}
	return cmd
}
