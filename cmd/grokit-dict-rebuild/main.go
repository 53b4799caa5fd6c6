package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/tobsdb/grokit-tools/internal/cli"
	"github.com/tobsdb/grokit-tools/internal/dictionary"
	"github.com/tobsdb/grokit-tools/internal/store"
)

func newRootCmd() *cobra.Command {
	var db_path string

	cmd := &cobra.Command{
		Use:   "grokit-dict-rebuild <dictionary>",
		Short: "Deduplicate a Grokit dictionary and renumber its sort order",
		Long: `Rebuilds the table Dictionary_<dictionary> in the Grokit metadata store:
duplicate (str, id) pairs collapse to one row and "order" is renumbered
densely from 0 in ascending (str, id) order. The rewrite is a single
transaction. Nothing is printed on success.

Exit status is 1 if the dictionary does not exist.`,
		Args: cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rebuild(cmd.Context(), db_path, args[0])
		},
	}
	cmd.Flags().StringVarP(&db_path, "database", "d", store.DefaultPath, "path to the metadata store")
	cli.Setup(cmd)
	return cmd
}

func rebuild(ctx context.Context, db_path, name string) error {
	s, err := store.Open(db_path)
	if err != nil {
		return err
	}
	defer s.Close()

	return dictionary.Rebuild(ctx, s, name)
}

func main() {
	err := newRootCmd().ExecuteContext(context.Background())
	cli.Exit(err, cli.ExitStore)
}
