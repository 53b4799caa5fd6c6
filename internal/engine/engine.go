// Package engine runs the Grokit executable and the helper processes
// that feed it.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/tobsdb/grokit-tools/pkg"
)

const DefaultExec = "grokit"

// ExitError is a process that ran but exited with a non-zero status.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

// StartError is a process that could not be started at all.
type StartError struct {
	Command string
	Err     error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

type Engine struct {
	Exec   string
	Stdout io.Writer
	Stderr io.Writer
}

func New(exec string) *Engine {
	if exec == "" {
		exec = DefaultExec
	}
	return &Engine{Exec: exec, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes `<exec> -w run <script>` and waits for it. stdin may be nil,
// in which case the engine reads from the tool's own stdin.
func (e *Engine) Run(ctx context.Context, script string, stdin io.Reader) error {
	cmd := exec.CommandContext(ctx, e.Exec, "-w", "run", script)
	if stdin == nil {
		stdin = os.Stdin
	}
	cmd.Stdin = stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	pkg.InfoLog("running", strings.Join(cmd.Args, " "))
	return classify(strings.Join(cmd.Args, " "), cmd.Run())
}

func classify(command string, err error) error {
	if err == nil {
		return nil
	}
	var exit_err *exec.ExitError
	if errors.As(err, &exit_err) {
		return &ExitError{Command: command, Code: exit_err.ExitCode()}
	}
	return &StartError{Command: command, Err: err}
}
