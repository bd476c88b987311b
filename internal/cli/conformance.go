package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/greentic-ai-org/greentic-types/internal/harness"
)

// SuiteResult is the outcome of one vector file.
type SuiteResult struct {
	File   string          `json:"file"`
	Suite  string          `json:"suite"`
	Result *harness.Result `json:"result"`
}

// NewConformanceCommand creates the conformance command.
func NewConformanceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conformance <vectors.yaml>...",
		Short: "Run conformance vector suites",
		Long: `Run every vector in one or more suites against this implementation.

Each vector pins the canonical bytes of a value, the fingerprint of a
schema triple, the verdict on a byte string, or an envelope encoding.
Another implementation that passes the same files produces identical
bytes.

Exit codes:
  0 - All vectors pass
  1 - At least one vector failed
  2 - A suite could not be loaded`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConformance(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runConformance(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	results := make([]SuiteResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		suite, err := harness.LoadSuite(path)
		if err != nil {
			return fail(formatter, err)
		}
		formatter.VerboseLog("Running %s (%d vectors)", suite.Name, len(suite.Vectors))

		res, err := harness.Run(suite, harness.WithLogger(slog.Default()))
		if err != nil {
			return fail(formatter, err)
		}
		failed += res.Failed()
		results = append(results, SuiteResult{File: path, Suite: suite.Name, Result: res})
	}

	if err := formatter.Result(results, func(w io.Writer) {
		for _, r := range results {
			fmt.Fprintf(w, "# %s (%s)\n", r.Suite, r.File)
			_, _ = w.Write(harness.Report(r.Result))
			for _, msg := range r.Result.Errors {
				fmt.Fprintf(w, "  %s\n", msg)
			}
		}
	}); err != nil {
		return err
	}

	if failed > 0 {
		return WrapExitError(ExitFailure, ErrCodeConformance, fmt.Errorf("%d vector(s) failed", failed))
	}
	return nil
}
