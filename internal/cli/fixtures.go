package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/greentic-ai-org/greentic-types/internal/component"
)

// FixtureResult reports one fixture file.
type FixtureResult struct {
	Path   string `json:"path"`
	Size   int    `json:"size"`
	Status string `json:"status"` // "written", "unchanged" or "stale"
}

// NewFixturesCommand creates the fixtures command.
func NewFixturesCommand(rootOpts *RootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "fixtures <dir>",
		Short: "Regenerate the component reference fixtures",
		Long: `Write the reference describe and QA payloads under <dir>:

  component/describe_v0_6_0.cbor
  component/qa_default_v0_6_0.cbor

With --check nothing is written; the command fails (exit 1) if any file
is missing or differs from what would be generated.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixtures(rootOpts, args[0], check, cmd)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "compare instead of writing")
	return cmd
}

func runFixtures(opts *RootOptions, dir string, check bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	fixtures, err := component.Fixtures()
	if err != nil {
		return fail(formatter, err)
	}

	results := make([]FixtureResult, 0, len(fixtures))
	stale := 0
	for _, fx := range fixtures {
		path := filepath.Join(dir, filepath.FromSlash(fx.Path))
		res := FixtureResult{Path: path, Size: len(fx.Data)}

		existing, err := os.ReadFile(path)
		switch {
		case err == nil && bytes.Equal(existing, fx.Data):
			res.Status = "unchanged"
		case check:
			res.Status = "stale"
			stale++
		default:
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fail(formatter, err)
			}
			if err := writeFile(formatter, path, fx.Data); err != nil {
				return err
			}
			res.Status = "written"
		}
		formatter.VerboseLog("%s: %s", path, res.Status)
		results = append(results, res)
	}

	if err := formatter.Result(results, func(w io.Writer) {
		for _, r := range results {
			fmt.Fprintf(w, "%-9s %s (%d bytes)\n", r.Status, r.Path, r.Size)
		}
	}); err != nil {
		return err
	}
	if stale > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d fixture(s) out of date", stale))
	}
	return nil
}
