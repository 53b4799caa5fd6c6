package main

import (
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/tobsdb/grokit-tools/internal/cli"
	"github.com/tobsdb/grokit-tools/internal/dictionary"
	"github.com/tobsdb/grokit-tools/internal/store"
)

type options struct {
	db_path string
	as_json bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "grokit-dict",
		Short: "Inspect the dictionaries in a Grokit metadata store",
	}
	root.PersistentFlags().StringVarP(&opts.db_path, "database", "d", store.DefaultPath, "path to the metadata store")
	root.PersistentFlags().BoolVar(&opts.as_json, "json", false, "print JSON instead of text")
	cli.Setup(root)

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List dictionary names",
		Args:  cli.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(s *store.Store) error {
				return list(cmd.Context(), s, cmd.OutOrStdout(), opts.as_json)
			})
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "show <dictionary>",
		Short: "Print the rows of a dictionary sorted by order",
		Args:  cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(s *store.Store) error {
				return show(cmd.Context(), s, cmd.OutOrStdout(), args[0], opts.as_json)
			})
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "verify <dictionary>",
		Short: "Check that a dictionary is deduplicated and densely ordered",
		Long: `Checks that the "order" column of a dictionary is exactly 0..N-1, that
no (str, id) pair repeats and that order follows ascending (str, id).
Exits with status 5 when it does not; grokit-dict-rebuild fixes that.`,
		Args: cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(s *store.Store) error {
				return verify(cmd.Context(), s, cmd.OutOrStdout(), args[0])
			})
		},
	})
	return root
}

func withStore(opts *options, f func(s *store.Store) error) error {
	s, err := store.Open(opts.db_path)
	if err != nil {
		return err
	}
	defer s.Close()
	return f(s)
}

func list(ctx context.Context, s *store.Store, w io.Writer, as_json bool) error {
	names, err := s.DictionaryTables(ctx)
	if err != nil {
		return err
	}
	if as_json {
		return json.NewEncoder(w).Encode(names)
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

func readEntries(ctx context.Context, s *store.Store, name string) ([]dictionary.Entry, error) {
	table, err := dictionary.Lookup(ctx, s, name)
	if err != nil {
		return nil, err
	}
	return s.ReadEntries(ctx, table)
}

func show(ctx context.Context, s *store.Store, w io.Writer, name string, as_json bool) error {
	entries, err := readEntries(ctx, s, name)
	if err != nil {
		return err
	}
	if as_json {
		return json.NewEncoder(w).Encode(entries)
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%d\t%s\n", e.Order, e.ID, e.Str)
	}
	return nil
}

func verify(ctx context.Context, s *store.Store, w io.Writer, name string) error {
	entries, err := readEntries(ctx, s, name)
	if err != nil {
		return err
	}
	if err := dictionary.Verify(entries); err != nil {
		return fmt.Errorf("dictionary %s needs a rebuild: %w", name, err)
	}
	fmt.Fprintf(w, "dictionary %s is valid (%d entries)\n", name, len(entries))
	return nil
}

func main() {
	err := newRootCmd().ExecuteContext(context.Background())
	cli.Exit(err, cli.ExitStore)
}
