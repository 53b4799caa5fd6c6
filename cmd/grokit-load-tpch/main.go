package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tobsdb/grokit-tools/internal/cli"
	"github.com/tobsdb/grokit-tools/internal/engine"
	"github.com/tobsdb/grokit-tools/internal/tpch"
	"github.com/tobsdb/grokit-tools/pkg"
	"golang.org/x/sys/unix"
)

func newRootCmd() *cobra.Command {
	settings := tpch.NewSettings()
	var engine_exec string

	cmd := &cobra.Command{
		Use:   "grokit-load-tpch",
		Short: "Generate the TPC-H tables and bulk-load them into Grokit",
		Long: `Loads the TPC-H schema into Grokit and then every table in the order
region, nation, customer, supplier, part, partsupp, orders, lineitem.
Rows come from dbgen writing into named pipes under <data>/tpch, so dbgen
must already be built in the --dbgen directory.

Exit status is 7 if the data directory is not a directory, 8 if the
schema is missing or the load stops while loading it and 9 if it stops
while loading data.`,
		Args: cli.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := engine.New(engine_exec)
			eng.Stdout = cmd.OutOrStdout()
			eng.Stderr = cmd.ErrOrStderr()
			loader := tpch.NewLoader(settings, eng, cmd.InOrStdin(), cmd.OutOrStdout())
			return loader.Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&settings.DataDir, "data", "d", settings.DataDir, "data directory; pipes are created in <data>/tpch")
	flags.StringVarP(&settings.DbgenDir, "dbgen", "D", settings.DbgenDir, "directory holding the dbgen executable and dists.dss")
	flags.IntVarP(&settings.ScaleFactor, "scale-factor", "f", settings.ScaleFactor, "TPC-H scale factor")
	flags.IntVarP(&settings.NumStripes, "num-stripes", "n", settings.NumStripes, "number of stripes for the large tables")
	flags.StringVarP(&settings.SchemaPath, "schema", "s", settings.SchemaPath, "schema script run before the data load")
	flags.StringVarP(&settings.FilterScript, "script", "x", "", "filter every generated row through this shell command")
	flags.StringVarP(&settings.Postfix, "postscript", "P", "", "suffix appended to every relation name in the schema and bulk-load scripts")
	flags.BoolVarP(&settings.KeepFiles, "keep-files", "k", false, "keep the generated scripts")
	flags.BoolVarP(&settings.AssumeYes, "yes", "y", false, "do not ask before starting")
	flags.BoolVar(&settings.IgnoreEngineErrors, "ignore-engine-errors", false, "continue when the engine exits with an error")
	flags.BoolVarP(&settings.Initialize, "initialize", "i", false, "answer the engine's first-run questions")
	flags.StringVarP(&settings.Init.DiskPattern, "disk-pattern", "p", settings.Init.DiskPattern, "disk path pattern given to the engine on first run")
	flags.IntVarP(&settings.Init.Exponent, "exponent", "e", settings.Init.Exponent, "page multiplier exponent given to the engine on first run")
	flags.IntVarP(&settings.Init.NumDisks, "num-disks", "m", settings.Init.NumDisks, "number of disks given to the engine on first run")
	flags.StringVar(&engine_exec, "engine", engine.DefaultExec, "engine executable")
	cli.Setup(cmd)
	return cmd
}

// Grokit only stops on CTRL+C, which the terminal also delivers to us.
// Catching it keeps the loader alive to start the next table; SIGTERM
// still stops everything.
func catchInterrupts() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		for range ch {
			pkg.DebugLog("interrupt passed on to the engine")
		}
	}()
}

func main() {
	catchInterrupts()
	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	cli.Exit(err, cli.ExitFailure)
}
