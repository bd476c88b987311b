package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/component"
	"github.com/greentic-ai-org/greentic-types/internal/pack"
	"github.com/greentic-ai-org/greentic-types/internal/wizard"
)

// ValidateResult is the output of a successful validate.
type ValidateResult struct {
	File    string `json:"file"`
	As      string `json:"as"`
	Summary string `json:"summary"`
}

// payloadType decodes and checks one kind of payload, returning a summary.
type payloadType struct {
	policy canonical.FloatPolicy
	check  func(data []byte) (string, error)
}

var payloadTypes = map[string]payloadType{
	"describe": {canonical.FloatPermissive, func(data []byte) (string, error) {
		d, err := component.DecodeDescribe(data)
		if err != nil {
			return "", err
		}
		if err := d.VerifySchemaHashes(); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s, %d operation(s)", d.Info.ID, d.Info.Version, len(d.Operations)), nil
	}},
	"qa": {canonical.FloatStrict, func(data []byte) (string, error) {
		s, err := component.DecodeQaSpec(data)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("mode %s, %d question(s), %d i18n key(s)", s.Mode, len(s.Questions), len(s.I18nKeys())), nil
	}},
	"capabilities": {canonical.FloatStrict, func(data []byte) (string, error) {
		c, err := pack.DecodeCapabilitiesV1(data)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d offer(s)", len(c.Offers)), nil
	}},
	"extensions": {canonical.FloatPermissive, func(data []byte) (string, error) {
		e, err := pack.DecodeExtensions(data)
		if err != nil {
			return "", err
		}
		caps, err := e.CapabilitiesV1()
		if err != nil {
			return "", err
		}
		summary := fmt.Sprintf("%d extension(s)", len(e))
		if caps != nil {
			summary += fmt.Sprintf(", %s with %d offer(s)", pack.ExtCapabilitiesV1, len(caps.Offers))
		}
		return summary, nil
	}},
	"plan": {canonical.FloatPermissive, func(data []byte) (string, error) {
		p, err := wizard.DecodePlan(data)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s/%s, %d step(s), %d delegation(s)",
			p.Meta.ID, p.Meta.Target, p.Meta.Mode, len(p.Steps), len(p.Delegations())), nil
	}},
}

func payloadTypeNames() []string {
	names := make([]string, 0, len(payloadTypes))
	for name := range payloadTypes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "validate <file.cbor> --as <type>",
		Short: "Decode a payload as a contract type and check its rules",
		Long: `Check that a payload is canonical, decodes as the given type, and obeys
that type's rules: describe fingerprints verify, capability offers with
requires_setup carry a setup, extension inline payloads have the right
shape, and wizard plans use known targets, modes and steps.

Types: ` + strings.Join(payloadTypeNames(), ", ") + `

Exit codes:
  0 - Valid
  1 - Not canonical, undecodable, or a rule is broken
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			pt, ok := payloadTypes[as]
			if !ok {
				err := fmt.Errorf("--as must be one of %s, got %q", strings.Join(payloadTypeNames(), ", "), as)
				_ = formatter.Error(ErrCodeUsage, err.Error(), nil)
				return WrapExitError(ExitCommandError, ErrCodeUsage, err)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fail(formatter, err)
			}
			if err := canonical.EnsureCanonical(data, pt.policy); err != nil {
				return fail(formatter, err)
			}
			summary, err := pt.check(data)
			if err != nil {
				return fail(formatter, err)
			}

			result := ValidateResult{File: args[0], As: as, Summary: summary}
			return formatter.Result(result, func(w io.Writer) {
				fmt.Fprintf(w, "✓ %s is a valid %s: %s\n", args[0], as, summary)
			})
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "payload type (required)")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}
