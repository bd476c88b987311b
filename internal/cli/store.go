package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/contracts"
	"github.com/greentic-ai-org/greentic-types/internal/envelope"
	"github.com/greentic-ai-org/greentic-types/internal/store"
)

// PutResult reports one stored envelope.
type PutResult struct {
	File     string      `json:"file"`
	Entry    store.Entry `json:"entry"`
	Inserted bool        `json:"inserted"`
}

// GetResult is a stored envelope with its body in diagnostic notation.
type GetResult struct {
	Entry store.Entry `json:"entry"`
	Body  string      `json:"body"`
}

// NewStoreCommand creates the store command group.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Content-addressed envelope registry",
		Long: `Store and query envelopes in a SQLite registry.

The database comes from --db or $` + EnvDatabase + `. Only canonical
bodies are accepted. Describe envelopes also have every operation
fingerprint verified and indexed.`,
	}
	cmd.AddCommand(newStorePutCommand(rootOpts))
	cmd.AddCommand(newStoreGetCommand(rootOpts))
	cmd.AddCommand(newStoreListCommand(rootOpts))
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openStore opens the registry named by the root options.
func openStore(opts *RootOptions, formatter *OutputFormatter) (*store.Store, error) {
	path, err := opts.databasePath()
	if err != nil {
		_ = formatter.Error(ErrCodeUsage, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, ErrCodeUsage, err)
	}
	formatter.VerboseLog("Opening registry %s", path)
	st, err := store.Open(path, store.WithLogger(slog.Default()))
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, ErrCodeStore, err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

func newStorePutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "put <envelope.cbor>...",
		Short:         "Store envelopes",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			st, err := openStore(rootOpts, formatter)
			if err != nil {
				return err
			}
			defer closeStore(st)

			ctx := commandContext(cmd)
			results := make([]PutResult, 0, len(args))
			for _, path := range args {
				res, err := putFile(ctx, st, path)
				if err != nil {
					return fail(formatter, fmt.Errorf("%s: %w", path, err))
				}
				results = append(results, res)
			}

			return formatter.Result(results, func(w io.Writer) {
				for _, r := range results {
					status := "stored"
					if !r.Inserted {
						status = "exists"
					}
					fmt.Fprintf(w, "%-6s %s %s v%d %s\n", status, r.Entry.ID, r.Entry.SchemaID, r.Entry.SchemaVersion, r.File)
				}
			})
		},
	}
}

func putFile(ctx context.Context, st *store.Store, path string) (PutResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PutResult{}, err
	}
	env, err := envelope.Decode(data)
	if err != nil {
		return PutResult{}, err
	}

	var (
		entry    store.Entry
		inserted bool
	)
	if env.SchemaID == contracts.SchemaComponentDescribe {
		entry, inserted, err = st.PutDescribe(ctx, env)
	} else {
		entry, inserted, err = st.Put(ctx, env)
	}
	if err != nil {
		return PutResult{}, err
	}
	return PutResult{File: path, Entry: entry, Inserted: inserted}, nil
}

func newStoreGetCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		output  string
		wrapped bool
	)

	cmd := &cobra.Command{
		Use:           "get <id>",
		Short:         "Show a stored envelope",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			st, err := openStore(rootOpts, formatter)
			if err != nil {
				return err
			}
			defer closeStore(st)

			rec, err := st.Get(commandContext(cmd), args[0])
			if err != nil {
				return fail(formatter, err)
			}
			diag, err := canonical.Diagnose(rec.Envelope.Body)
			if err != nil {
				return fail(formatter, err)
			}

			if output != "" {
				data := rec.Envelope.Body
				if wrapped {
					if data, err = rec.Envelope.Marshal(); err != nil {
						return fail(formatter, err)
					}
				}
				if err := writeFile(formatter, output, data); err != nil {
					return err
				}
			}

			return formatter.Result(GetResult{Entry: rec.Entry, Body: diag}, func(w io.Writer) {
				e := rec.Entry
				fmt.Fprintf(w, "id:             %s\n", e.ID)
				fmt.Fprintf(w, "seq:            %d\n", e.Seq)
				fmt.Fprintf(w, "kind:           %s\n", e.Kind)
				fmt.Fprintf(w, "schema_id:      %s\n", e.SchemaID)
				fmt.Fprintf(w, "schema_version: %d\n", e.SchemaVersion)
				fmt.Fprintf(w, "digest:         %s\n", e.Digest)
				fmt.Fprintf(w, "body:           %s\n", diag)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the body to a file")
	cmd.Flags().BoolVar(&wrapped, "envelope", false, "with --output, write the whole envelope")
	return cmd
}

func newStoreListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		filter      store.Filter
		fingerprint string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored envelopes",
		Long: `List stored envelopes in insertion order.

With --fingerprint only describes that publish an operation with that
schema fingerprint are listed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			st, err := openStore(rootOpts, formatter)
			if err != nil {
				return err
			}
			defer closeStore(st)

			ctx := commandContext(cmd)
			var entries []store.Entry
			if fingerprint != "" {
				entries, err = st.ByFingerprint(ctx, fingerprint)
			} else {
				entries, err = st.List(ctx, filter)
			}
			if err != nil {
				return fail(formatter, err)
			}

			return formatter.Result(entries, func(w io.Writer) {
				if len(entries) == 0 {
					fmt.Fprintln(w, "No envelopes found.")
					return
				}
				for _, e := range entries {
					fmt.Fprintf(w, "%4d %s %-10s %s v%d (%d bytes)\n", e.Seq, e.ID, e.Kind, e.SchemaID, e.SchemaVersion, e.Size)
				}
			})
		},
	}

	cmd.Flags().StringVar(&filter.Kind, "kind", "", "only this envelope kind")
	cmd.Flags().StringVar(&filter.SchemaID, "schema-id", "", "only this schema id")
	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "only describes publishing this operation fingerprint")
	return cmd
}
