package engine

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/tobsdb/grokit-tools/pkg"
	"golang.org/x/sys/unix"
)

// Process is a helper started in the background, such as a data
// generator writing into a named pipe the engine reads from.
type Process struct {
	Command string

	cmd        *exec.Cmd
	done       chan struct{}
	err        error
	terminated atomic.Bool
}

// Start launches name with args in dir without waiting for it.
func Start(ctx context.Context, dir, name string, args ...string) (*Process, error) {
	return start(exec.CommandContext(ctx, name, args...), dir)
}

// StartShell launches command through /bin/sh, for user supplied filter
// pipelines with redirections.
func StartShell(ctx context.Context, dir, command string) (*Process, error) {
	return start(exec.CommandContext(ctx, "/bin/sh", "-c", command), dir)
}

func start(cmd *exec.Cmd, dir string) (*Process, error) {
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	p := &Process{Command: strings.Join(cmd.Args, " "), cmd: cmd, done: make(chan struct{})}
	if err := cmd.Start(); err != nil {
		return nil, &StartError{Command: p.Command, Err: err}
	}
	pkg.DebugLog("started", p.Command, "pid", cmd.Process.Pid)

	go func() {
		p.err = classify(p.Command, cmd.Wait())
		close(p.done)
	}()
	return p, nil
}

func (p *Process) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Terminate asks a running process to stop. It does nothing if the
// process already exited.
func (p *Process) Terminate() error {
	if !p.Running() {
		return nil
	}
	p.terminated.Store(true)
	pkg.DebugLog("terminating", p.Command)
	err := p.cmd.Process.Signal(unix.SIGTERM)
	if err != nil && err != os.ErrProcessDone {
		return err
	}
	return nil
}

// Terminated reports whether Terminate stopped the process.
func (p *Process) Terminated() bool { return p.terminated.Load() }

// Wait blocks until the process exits. A process stopped by Terminate
// is not an error.
func (p *Process) Wait() error {
	<-p.done
	if p.Terminated() {
		return nil
	}
	return p.err
}
