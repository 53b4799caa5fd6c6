package tpch_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/tobsdb/grokit-tools/internal/engine"
	"github.com/tobsdb/grokit-tools/internal/testutil"
	"github.com/tobsdb/grokit-tools/internal/tpch"
	"gotest.tools/assert"
)

// fakeDbgen writes "<table>|<stripe>|" into the pipe real dbgen would use.
const fakeDbgen = `stripe=""
while [ $# -gt 0 ]; do
  case "$1" in
    -T) flag="$2"; shift ;;
    -S) stripe="$2"; shift ;;
  esac
  shift
done
case "$flag" in
  r) t=region ;; n) t=nation ;; c) t=customer ;; s) t=supplier ;;
  P) t=part ;; S) t=partsupp ;; O) t=orders ;; L) t=lineitem ;;
esac
if [ -n "$stripe" ]; then f="$t.tbl.$stripe"; else f="$t.tbl"; fi
echo "$t|$stripe|" > "$f"`

// fakeEngine logs each script it runs and copies every pipe named by a
// READ FILE line into $DATA_LOG.
const fakeEngine = `echo "$(basename "$3")" >> "$ENGINE_LOG"
if [ -n "$FAIL_ON" ]; then
  case "$3" in *"$FAIL_ON"*) exit 1 ;; esac
fi
file=$(sed -n 's/^data = READ FILE "\([^"]*\)".*/\1/p' "$3")
[ -z "$file" ] && exit 0
case "$file" in
  *%d*)
    i=1
    while [ $i -le "$STRIPES" ]; do
      cat "$(printf "$file" $i)" >> "$DATA_LOG"
      i=$((i+1))
    done ;;
  *) cat "$file" >> "$DATA_LOG" ;;
esac`

type loaderEnv struct {
	settings  *tpch.Settings
	engine    *engine.Engine
	engineLog string
	dataLog   string
}

func newLoaderEnv(t *testing.T, stripes int) *loaderEnv {
	dir := t.TempDir()
	s := tpch.NewSettings()
	s.DataDir = filepath.Join(dir, "data")
	s.DbgenDir = filepath.Join(dir, "dbgen")
	s.SchemaPath = filepath.Join(dir, "schema.pgy")
	s.NumStripes = stripes
	s.AssumeYes = true

	assert.NilError(t, os.MkdirAll(s.DbgenDir, 0o755))
	testutil.WriteScript(t, s.DbgenDir, "dbgen", fakeDbgen)
	assert.NilError(t, os.WriteFile(s.SchemaPath, []byte("CREATE RELATION region{postfix} (r_name STRING);\n"), 0o644))

	env := &loaderEnv{
		settings:  s,
		engine:    engine.New(testutil.WriteScript(t, dir, "grokit", fakeEngine)),
		engineLog: filepath.Join(dir, "engine.log"),
		dataLog:   filepath.Join(dir, "data.log"),
	}
	env.engine.Stdout = &bytes.Buffer{}
	env.engine.Stderr = &bytes.Buffer{}
	t.Setenv("ENGINE_LOG", env.engineLog)
	t.Setenv("DATA_LOG", env.dataLog)
	t.Setenv("STRIPES", strconv.Itoa(stripes))
	t.Setenv("FAIL_ON", "")
	return env
}

func readLines(t *testing.T, path string) []string {
	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestLoaderRun(t *testing.T) {
	ctx := context.Background()

	t.Run("unstriped", func(t *testing.T) {
		env := newLoaderEnv(t, 1)
		out := &bytes.Buffer{}
		l := tpch.NewLoader(env.settings, env.engine, strings.NewReader(""), out)

		assert.NilError(t, l.Run(ctx))

		assert.DeepEqual(t, readLines(t, env.engineLog), []string{
			"schema.pgy",
			"bulkload_region.pgy", "bulkload_nation.pgy", "bulkload_customer.pgy", "bulkload_supplier.pgy",
			"bulkload_part.pgy", "bulkload_partsupp.pgy", "bulkload_orders.pgy", "bulkload_lineitem.pgy",
		})
		assert.DeepEqual(t, readLines(t, env.dataLog), []string{
			"region||", "nation||", "customer||", "supplier||", "part||", "partsupp||", "orders||", "lineitem||",
		})

		// scripts and pipes are gone
		scripts, err := filepath.Glob(filepath.Join(env.settings.DataDir, "*.pgy"))
		assert.NilError(t, err)
		assert.Equal(t, len(scripts), 0)
		pipes, err := filepath.Glob(filepath.Join(env.settings.WorkDir(), "*.tbl*"))
		assert.NilError(t, err)
		assert.Equal(t, len(pipes), 0)
	})

	t.Run("striped keeps files", func(t *testing.T) {
		env := newLoaderEnv(t, 2)
		env.settings.KeepFiles = true
		env.settings.Postfix = "_x"
		l := tpch.NewLoader(env.settings, env.engine, strings.NewReader(""), &bytes.Buffer{})

		assert.NilError(t, l.Run(ctx))

		data := readLines(t, env.dataLog)
		assert.Equal(t, len(data), 2+6*2)
		assert.DeepEqual(t, data[:4], []string{"region||", "nation||", "customer|1|", "customer|2|"})

		schema, err := os.ReadFile(filepath.Join(env.settings.DataDir, "schema.pgy"))
		assert.NilError(t, err)
		assert.Equal(t, string(schema), "CREATE RELATION region_x (r_name STRING);\n")
	})

	t.Run("relative data dir", func(t *testing.T) {
		env := newLoaderEnv(t, 1)
		env.settings.KeepFiles = true
		wd, err := os.Getwd()
		assert.NilError(t, err)
		assert.NilError(t, os.Chdir(filepath.Dir(env.settings.DataDir)))
		defer os.Chdir(wd)
		base, err := os.Getwd()
		assert.NilError(t, err)
		env.settings.DataDir = "data"

		assert.NilError(t, tpch.NewLoader(env.settings, env.engine, strings.NewReader(""), &bytes.Buffer{}).Run(ctx))

		data_dir := filepath.Join(base, "data")
		assert.Equal(t, env.settings.DataDir, data_dir)
		script, err := os.ReadFile(filepath.Join(data_dir, "bulkload_region.pgy"))
		assert.NilError(t, err)
		assert.Assert(t, strings.Contains(string(script), `READ FILE "`+filepath.Join(data_dir, "tpch", "region.tbl")+`"`), string(script))
	})

	t.Run("declined notice", func(t *testing.T) {
		env := newLoaderEnv(t, 1)
		env.settings.AssumeYes = false
		out := &bytes.Buffer{}
		l := tpch.NewLoader(env.settings, env.engine, strings.NewReader("no\n"), out)

		err := l.Run(ctx)
		var abort *tpch.AbortError
		assert.Assert(t, errors.As(err, &abort))
		assert.Equal(t, abort.Stage, tpch.StageSchema)
		assert.Assert(t, strings.HasPrefix(out.String(), "NOTICE: Grokit currently does not exit cleanly"))
		assert.Assert(t, strings.HasSuffix(out.String(), "all the information that it needs to.\n\nContinue? (Y/N) --> "))
		_, err = os.Stat(env.engineLog)
		assert.Assert(t, os.IsNotExist(err))
	})

	t.Run("engine failure declined", func(t *testing.T) {
		env := newLoaderEnv(t, 1)
		t.Setenv("FAIL_ON", "bulkload_nation")
		l := tpch.NewLoader(env.settings, env.engine, strings.NewReader("n\n"), &bytes.Buffer{})

		err := l.Run(ctx)
		var abort *tpch.AbortError
		assert.Assert(t, errors.As(err, &abort))
		assert.Equal(t, abort.Stage, tpch.StageData)
		var exit_err *engine.ExitError
		assert.Assert(t, errors.As(err, &exit_err))

		assert.DeepEqual(t, readLines(t, env.engineLog), []string{
			"schema.pgy", "bulkload_region.pgy", "bulkload_nation.pgy",
		})
	})

	t.Run("engine failure ignored", func(t *testing.T) {
		env := newLoaderEnv(t, 1)
		env.settings.IgnoreEngineErrors = true
		t.Setenv("FAIL_ON", "bulkload_part.pgy")
		l := tpch.NewLoader(env.settings, env.engine, strings.NewReader(""), &bytes.Buffer{})

		assert.NilError(t, l.Run(ctx))
		assert.Equal(t, len(readLines(t, env.engineLog)), 9)
		assert.Equal(t, len(readLines(t, env.dataLog)), 7)
	})

	t.Run("data dir is a file", func(t *testing.T) {
		env := newLoaderEnv(t, 1)
		assert.NilError(t, os.WriteFile(env.settings.DataDir, nil, 0o644))
		l := tpch.NewLoader(env.settings, env.engine, strings.NewReader(""), &bytes.Buffer{})
		assert.Assert(t, errors.Is(l.Run(ctx), tpch.ErrNotDirectory))
	})

	t.Run("schema missing", func(t *testing.T) {
		env := newLoaderEnv(t, 1)
		env.settings.SchemaPath = filepath.Join(t.TempDir(), "nope.pgy")
		l := tpch.NewLoader(env.settings, env.engine, strings.NewReader(""), &bytes.Buffer{})
		assert.Assert(t, errors.Is(l.Run(ctx), tpch.ErrSchemaMissing))
	})

	t.Run("generator missing", func(t *testing.T) {
		env := newLoaderEnv(t, 1)
		env.settings.DbgenDir = t.TempDir()
		l := tpch.NewLoader(env.settings, env.engine, strings.NewReader(""), &bytes.Buffer{})
		assert.Assert(t, errors.Is(l.Run(ctx), tpch.ErrGeneratorMissing))
	})
}
