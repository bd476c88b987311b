package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/greentic-ai-org/greentic-types/internal/contracts"
)

// NewWitCommand creates the wit command.
func NewWitCommand(rootOpts *RootOptions) *cobra.Command {
	var schemaID string

	cmd := &cobra.Command{
		Use:   "wit",
		Short: "List which component exports return which schema",
		Long: `Print the mapping from ` + contracts.ComponentWorld + ` exports to the
canonical schema id and version of their results.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			entries := contracts.WitReturns()
			if schemaID != "" {
				entries = contracts.BySchemaID(schemaID)
				if len(entries) == 0 {
					err := fmt.Errorf("no export returns %s", schemaID)
					_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
					return WrapExitError(ExitCommandError, ErrCodeNotFound, err)
				}
			}

			return formatter.Result(entries, func(w io.Writer) {
				for _, r := range entries {
					fmt.Fprintf(w, "%-22s %-20s %s v%d\n", r.Interface, r.Func, r.SchemaID, r.Version)
				}
			})
		},
	}

	cmd.Flags().StringVar(&schemaID, "schema-id", "", "only exports returning this schema id")
	return cmd
}
