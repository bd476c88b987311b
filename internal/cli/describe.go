package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/component"
	"github.com/greentic-ai-org/greentic-types/internal/contracts"
	"github.com/greentic-ai-org/greentic-types/internal/envelope"
)

// DescribeVerifyResult is the output of describe verify.
type DescribeVerifyResult struct {
	File       string              `json:"file"`
	Component  string              `json:"component"`
	Version    string              `json:"version"`
	Operations []VerifiedOperation `json:"operations"`
}

// VerifiedOperation is one operation whose fingerprint checked out.
type VerifiedOperation struct {
	ID         string `json:"id"`
	SchemaHash string `json:"schema_hash"`
}

// NewDescribeCommand creates the describe command group.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Work with component describe payloads",
	}
	cmd.AddCommand(newDescribeVerifyCommand(rootOpts))
	return cmd
}

func newDescribeVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	var wrapped bool

	cmd := &cobra.Command{
		Use:   "verify <describe.cbor>",
		Short: "Verify a describe payload and its operation fingerprints",
		Long: `Check that a component describe payload is canonical, decodes, and that
every operation's published schema_hash matches the fingerprint of its
input, output and the component config schema.

With --envelope the file is a describe envelope rather than a bare body.

Exit codes:
  0 - Valid
  1 - Not canonical, undecodable, or a fingerprint mismatch
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribeVerify(rootOpts, args[0], wrapped, cmd)
		},
	}

	cmd.Flags().BoolVar(&wrapped, "envelope", false, "the file is a describe envelope")
	return cmd
}

func runDescribeVerify(opts *RootOptions, path string, wrapped bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	body, err := os.ReadFile(path)
	if err != nil {
		return fail(formatter, err)
	}
	if wrapped {
		env, err := envelope.Decode(body)
		if err != nil {
			return fail(formatter, err)
		}
		if err := env.Expect(contracts.SchemaComponentDescribe, contracts.ComponentSchemaVersion); err != nil {
			return fail(formatter, err)
		}
		body = env.Body
	}

	// Metadata may carry example floats.
	if err := canonical.EnsureCanonical(body, canonical.FloatPermissive); err != nil {
		return fail(formatter, err)
	}
	d, err := component.DecodeDescribe(body)
	if err != nil {
		return fail(formatter, err)
	}
	if err := d.VerifySchemaHashes(); err != nil {
		return fail(formatter, err)
	}

	result := DescribeVerifyResult{
		File:       path,
		Component:  d.Info.ID,
		Version:    d.Info.Version,
		Operations: make([]VerifiedOperation, 0, len(d.Operations)),
	}
	for _, op := range d.Operations {
		result.Operations = append(result.Operations, VerifiedOperation{ID: op.ID, SchemaHash: op.SchemaHash})
		formatter.VerboseLog("Verified operation %s: %s", op.ID, op.SchemaHash)
	}

	return formatter.Result(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s %s: %d operation(s) verified\n", result.Component, result.Version, len(result.Operations))
		for _, op := range result.Operations {
			fmt.Fprintf(w, "  %s  %s\n", op.SchemaHash, op.ID)
		}
	})
}
