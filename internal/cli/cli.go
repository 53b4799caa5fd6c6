// Package cli holds what the grokit-tools binaries share: exit codes,
// argument validation and logging flags.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tobsdb/grokit-tools/internal/dictionary"
	"github.com/tobsdb/grokit-tools/internal/store"
	"github.com/tobsdb/grokit-tools/internal/tpch"
	"github.com/tobsdb/grokit-tools/pkg"
)

const (
	ExitOK                 = 0
	ExitFailure            = 1
	ExitDictionaryNotFound = 1
	ExitUsage              = 2
	ExitStoreOpen          = 3
	ExitStore              = 4
	ExitInvalidDictionary  = 5
	ExitDataDir            = 7
	ExitSchema             = 8
	ExitAborted            = 9
)

// UsageError is a bad command line.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// ExitCode maps err to the process exit status. Errors without a
// dedicated status get fallback.
func ExitCode(err error, fallback int) int {
	var (
		usage_err     *UsageError
		not_found_err *dictionary.NotFoundError
		open_err      *store.OpenError
		invariant_err *dictionary.InvariantError
		abort_err     *tpch.AbortError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &not_found_err):
		return ExitDictionaryNotFound
	case errors.As(err, &usage_err), errors.Is(err, dictionary.ErrEmptyName):
		return ExitUsage
	case errors.As(err, &open_err):
		return ExitStoreOpen
	case errors.As(err, &invariant_err):
		return ExitInvalidDictionary
	case errors.As(err, &abort_err):
		if abort_err.Stage == tpch.StageSchema {
			return ExitSchema
		}
		return ExitAborted
	case errors.Is(err, tpch.ErrNotDirectory):
		return ExitDataDir
	case errors.Is(err, tpch.ErrSchemaMissing):
		return ExitSchema
	}
	return fallback
}

// Report writes err to w the way every tool prints a fatal error and
// returns the exit status for it.
func Report(w io.Writer, err error, fallback int) int {
	if err != nil {
		fmt.Fprintln(w, "Error:", err)
	}
	return ExitCode(err, fallback)
}

// Exit reports err on stderr and exits.
func Exit(err error, fallback int) {
	os.Exit(Report(os.Stderr, err, fallback))
}

// ExactArgs is cobra.ExactArgs reporting a UsageError.
func ExactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &UsageError{err}
		}
		return nil
	}
}

func flagError(_ *cobra.Command, err error) error { return &UsageError{err} }

// Setup applies the behaviour shared by every root command: errors are
// printed once by Report, bad flags are usage errors and --verbose turns
// on debug logs.
func Setup(root *cobra.Command) {
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetFlagErrorFunc(flagError)

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			pkg.SetLogLevel(pkg.LogLevelDebug)
		}
	}
}
