package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/compiler"
	"github.com/greentic-ai-org/greentic-types/internal/schemair"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	AllowFloats bool
	Output      string
}

// EncodeResult is the output of the encode command.
type EncodeResult struct {
	Source string `json:"source"`
	Policy string `json:"policy"`
	Hex    string `json:"hex"`
	Size   int    `json:"size"`
	Output string `json:"output,omitempty"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <file>",
		Short: "Encode an authored value to canonical CBOR",
		Long: `Compile a CUE, YAML or JSON document and encode it canonically.

Without --output the bytes are printed as hex. Floats with integral
values, NaN and infinities are rejected unless --allow-floats is set.

Examples:
  greentic-types encode answers.yaml
  greentic-types encode config.cue -o config.cbor
  greentic-types encode metadata.jsonc --allow-floats`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.AllowFloats, "allow-floats", false, "use the permissive float policy")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the bytes to a file")

	return cmd
}

func policyFlag(allowFloats bool) canonical.FloatPolicy {
	if allowFloats {
		return canonical.FloatPermissive
	}
	return canonical.FloatStrict
}

func runEncode(opts *EncodeOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	policy := policyFlag(opts.AllowFloats)

	value, err := compiler.CompileFile(path)
	if err != nil {
		return fail(formatter, err)
	}
	data, err := canonical.Encode(value, policy)
	if err != nil {
		return fail(formatter, err)
	}
	formatter.VerboseLog("Encoded %s: %d bytes (%s)", path, len(data), policy)

	if opts.Output != "" {
		if err := writeFile(formatter, opts.Output, data); err != nil {
			return err
		}
	}

	result := EncodeResult{
		Source: path,
		Policy: policy.String(),
		Hex:    hex.EncodeToString(data),
		Size:   len(data),
		Output: opts.Output,
	}
	return formatter.Result(result, func(w io.Writer) {
		if opts.Output != "" {
			fmt.Fprintf(w, "Wrote %d bytes to %s\n", len(data), opts.Output)
			return
		}
		fmt.Fprintln(w, result.Hex)
	})
}

// NewDiagCommand creates the diag command.
func NewDiagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "diag <file.cbor>",
		Short:         "Print CBOR diagnostic notation",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fail(formatter, err)
			}
			diag, err := canonical.Diagnose(data)
			if err != nil {
				return fail(formatter, err)
			}
			return formatter.Result(map[string]string{"file": args[0], "diagnostic": diag}, func(w io.Writer) {
				fmt.Fprintln(w, diag)
			})
		},
	}
	return cmd
}

// CheckResult is the output of a successful canonical-form check.
type CheckResult struct {
	File   string `json:"file"`
	Policy string `json:"policy"`
	Size   int    `json:"size"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var allowFloats bool

	cmd := &cobra.Command{
		Use:   "check <file.cbor>",
		Short: "Check that bytes are in canonical form",
		Long: `Decode the bytes, re-encode them and require an exact match.

Exit codes:
  0 - Canonical
  1 - Not canonical, or not decodable
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			policy := policyFlag(allowFloats)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fail(formatter, err)
			}
			if err := canonical.EnsureCanonical(data, policy); err != nil {
				return fail(formatter, err)
			}
			result := CheckResult{File: args[0], Policy: policy.String(), Size: len(data)}
			return formatter.Result(result, func(w io.Writer) {
				fmt.Fprintf(w, "✓ %s is canonical (%d bytes, %s)\n", args[0], len(data), policy)
			})
		},
	}

	cmd.Flags().BoolVar(&allowFloats, "allow-floats", false, "use the permissive float policy")
	return cmd
}

// FingerprintResult is the output of the fingerprint command.
type FingerprintResult struct {
	Source      string `json:"source"`
	Fingerprint string `json:"fingerprint"`
}

// NewFingerprintCommand creates the fingerprint command.
func NewFingerprintCommand(rootOpts *RootOptions) *cobra.Command {
	var verify string

	cmd := &cobra.Command{
		Use:   "fingerprint <triple-file>",
		Short: "Fingerprint an {input, output, config} schema triple",
		Long: `Compile the input, output and config schemas of a document and print the
SHA-256 fingerprint of their canonical encoding.

With --verify the command fails (exit 1) unless the computed fingerprint
equals the published one.

Examples:
  greentic-types fingerprint op.cue
  greentic-types fingerprint op.yaml --verify ccb38753...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			doc, err := compiler.LoadFile(args[0])
			if err != nil {
				return fail(formatter, err)
			}
			triple, err := compiler.CompileTriple(doc)
			if err != nil {
				return fail(formatter, err)
			}
			if verify != "" {
				if err := schemair.VerifyFingerprint(verify, triple.Input, triple.Output, triple.Config); err != nil {
					return fail(formatter, err)
				}
			}
			fp, err := triple.Fingerprint()
			if err != nil {
				return fail(formatter, err)
			}
			return formatter.Result(FingerprintResult{Source: args[0], Fingerprint: fp}, func(w io.Writer) {
				fmt.Fprintln(w, fp)
			})
		},
	}

	cmd.Flags().StringVar(&verify, "verify", "", "published fingerprint to compare against")
	return cmd
}

// writeFile writes command output, reporting failures as command errors.
func writeFile(f *OutputFormatter, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		_ = f.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
	}
	return nil
}
