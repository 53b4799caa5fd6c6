package tpch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/tobsdb/grokit-tools/internal/engine"
	"github.com/tobsdb/grokit-tools/pkg"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

var (
	ErrNotDirectory     = errors.New("data directory is not a directory")
	ErrSchemaMissing    = errors.New("schema file does not exist")
	ErrGeneratorMissing = errors.New("dbgen not found; build the TPC-H generator first")
)

type Stage string

const (
	StageSchema Stage = "schema"
	StageData   Stage = "data"
)

// AbortError means the user declined to continue.
type AbortError struct {
	Stage Stage
	Err   error
}

func (e *AbortError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("aborted during %s load: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("aborted during %s load", e.Stage)
}

func (e *AbortError) Unwrap() error { return e.Err }

const notice = `NOTICE: Grokit currently does not exit cleanly when running a single script.
In order to work around this, Grokit will simply sit idle and do nothing
once it has finished executing its query. At this point, you will need to
close Grokit by sending an interrupt (CTRL+C). If everything has gone
well, it will have already saved all the information that it needs to.
`

const engineWarning = `Warning: an error occurred while loading the %s. It's possible that
Grokit exited with a non-zero exit code because it does not yet quit cleanly.
If this is the case, it is safe to continue.
`

type Loader struct {
	Settings *Settings
	Engine   *engine.Engine

	in  *bufio.Reader
	out io.Writer

	// generated scripts, removed at the end unless KeepFiles
	scripts []string
}

func NewLoader(settings *Settings, eng *engine.Engine, in io.Reader, out io.Writer) *Loader {
	return &Loader{Settings: settings, Engine: eng, in: bufio.NewReader(in), out: out}
}

func (l *Loader) Run(ctx context.Context) error {
	if err := l.Settings.Validate(); err != nil {
		return err
	}
	if err := l.Settings.Resolve(); err != nil {
		return errors.Wrap(err, "failed to resolve directories")
	}
	if err := l.prepareDirs(); err != nil {
		return err
	}

	schema, err := os.ReadFile(l.Settings.SchemaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(ErrSchemaMissing, l.Settings.SchemaPath)
		}
		return errors.Wrap(err, "failed to read schema")
	}
	if _, err := os.Stat(l.Settings.DbgenExec()); err != nil {
		return errors.Wrap(ErrGeneratorMissing, l.Settings.DbgenExec())
	}

	defer l.cleanup()

	if !l.Settings.AssumeYes {
		fmt.Fprint(l.out, notice+"\n")
		ok, err := Confirm(l.in, l.out, "Continue?")
		if err != nil {
			return err
		}
		if !ok {
			return &AbortError{Stage: StageSchema}
		}
	}

	if err := l.loadSchema(ctx, string(schema)); err != nil {
		return err
	}

	fmt.Fprintln(l.out, "Loading data into database.")
	for _, table := range Tables.Keys() {
		if err := l.loadTable(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) prepareDirs() error {
	info, err := os.Stat(l.Settings.DataDir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(l.Settings.DataDir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create data directory")
		}
	case err != nil:
		return errors.Wrap(err, "failed to stat data directory")
	case !info.IsDir():
		return errors.Wrap(ErrNotDirectory, l.Settings.DataDir)
	}
	return os.MkdirAll(l.Settings.WorkDir(), 0o755)
}

func (l *Loader) writeScript(name, content string) (string, error) {
	path := filepath.Join(l.Settings.DataDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	l.scripts = append(l.scripts, path)
	return path, nil
}

func (l *Loader) loadSchema(ctx context.Context, schema string) error {
	rendered, err := l.Settings.RenderSchema(schema)
	if err != nil {
		return err
	}
	path, err := l.writeScript("schema.pgy", rendered)
	if err != nil {
		return err
	}

	fmt.Fprintln(l.out, "Loading schema into database.")
	var stdin io.Reader
	if l.Settings.Initialize {
		stdin = strings.NewReader(l.Settings.InitAnswers())
	}
	if err := l.Engine.Run(ctx, path, stdin); err != nil {
		return l.handleEngineError(StageSchema, err)
	}
	return nil
}

func (l *Loader) loadTable(ctx context.Context, table string) error {
	pkg.InfoLog("loading table", table)
	work_dir := l.Settings.WorkDir()

	if err := removePipes(work_dir, table); err != nil {
		return err
	}
	defer func() {
		if err := removePipes(work_dir, table); err != nil {
			pkg.ErrorLog(err)
		}
	}()
	for _, name := range l.Settings.PipeNames(table) {
		if err := unix.Mkfifo(filepath.Join(work_dir, name), 0o600); err != nil {
			return errors.Wrapf(err, "failed to create pipe %s", name)
		}
	}

	procs, err := l.startHelpers(ctx, table)
	if err != nil {
		reap(procs)
		return err
	}

	script, err := l.Settings.RenderBulkload(table)
	if err != nil {
		reap(procs)
		return err
	}
	path, err := l.writeScript("bulkload_"+table+".pgy", script)
	if err != nil {
		reap(procs)
		return err
	}

	run_err := l.Engine.Run(ctx, path, nil)
	helper_err := reap(procs)

	if run_err != nil {
		return l.handleEngineError(StageData, run_err)
	}
	if helper_err != nil {
		return errors.Wrapf(helper_err, "failed to generate %s", table)
	}
	return nil
}

// startHelpers starts dbgen for every stripe of table and, when filtering,
// one filter per stripe. On error the processes started so far are
// returned so they can be reaped.
func (l *Loader) startHelpers(ctx context.Context, table string) ([]*engine.Process, error) {
	work_dir := l.Settings.WorkDir()
	dbgen, err := filepath.Abs(l.Settings.DbgenExec())
	if err != nil {
		return nil, err
	}

	procs := []*engine.Process{}
	for _, stripe := range l.Settings.Stripes(table) {
		p, err := engine.Start(ctx, work_dir, dbgen, l.Settings.GeneratorArgs(table, stripe)...)
		if err != nil {
			return procs, err
		}
		procs = append(procs, p)
	}

	if l.Settings.FilterScript == "" {
		return procs, nil
	}
	filter, err := filepath.Abs(l.Settings.FilterScript)
	if err != nil {
		return procs, err
	}
	for _, stripe := range l.Settings.Stripes(table) {
		command := fmt.Sprintf("%s < %s > %s", filter, GeneratorFile(table, stripe), FilterFile(table, stripe))
		p, err := engine.StartShell(ctx, work_dir, command)
		if err != nil {
			return procs, err
		}
		procs = append(procs, p)
	}
	return procs, nil
}

// reap stops helpers the engine left behind and waits for all of them.
func reap(procs []*engine.Process) error {
	var g errgroup.Group
	for _, p := range procs {
		if p.Running() {
			if err := p.Terminate(); err != nil {
				pkg.ErrorLog("failed to terminate", p.Command, err)
			}
		}
		g.Go(p.Wait)
	}
	return g.Wait()
}

func (l *Loader) handleEngineError(stage Stage, err error) error {
	if l.Settings.IgnoreEngineErrors {
		pkg.WarnLog("ignoring engine failure during", stage, "load:", err)
		return nil
	}

	fmt.Fprintf(l.out, engineWarning, stage)
	fmt.Fprintln(l.out)
	ok, confirm_err := Confirm(l.in, l.out, "Continue?")
	if confirm_err != nil {
		return confirm_err
	}
	if !ok {
		return &AbortError{Stage: stage, Err: err}
	}
	return nil
}

func removePipes(dir, table string) error {
	matches, err := filepath.Glob(filepath.Join(dir, table+".tbl*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove %s", m)
		}
	}
	return nil
}

func (l *Loader) cleanup() {
	if l.Settings.KeepFiles {
		return
	}
	for _, path := range l.scripts {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			pkg.ErrorLog(err)
		}
	}
	l.scripts = nil
}
