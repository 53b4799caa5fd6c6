package main

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/tobsdb/grokit-tools/internal/cli"
	"github.com/tobsdb/grokit-tools/internal/dictionary"
	"github.com/tobsdb/grokit-tools/internal/testutil"
	"gotest.tools/assert"
)

func run(args ...string) (int, string) {
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	code := cli.Report(out, cmd.Execute(), cli.ExitStore)
	return code, out.String()
}

func newStore(t *testing.T) string {
	path := testutil.NewMetadataStore(t, map[string][]dictionary.Pair{
		"n_name":  {{Str: "GERMANY", ID: 1}, {Str: "FRANCE", ID: 0}},
		"r_name":  {{Str: "ASIA", ID: 2}, {Str: "AFRICA", ID: 0}},
		"o_clerk": {},
	})
	testutil.Exec(t, path,
		`UPDATE "Dictionary_n_name" SET "order" = 1 WHERE "str" = 'GERMANY'`,
		`UPDATE "Dictionary_n_name" SET "order" = 0 WHERE "str" = 'FRANCE'`,
	)
	return path
}

func TestList(t *testing.T) {
	path := newStore(t)

	code, out := run("list", "-d", path)
	assert.Equal(t, code, 0)
	assert.Equal(t, out, "n_name\no_clerk\nr_name\n")

	code, out = run("list", "-d", path, "--json")
	assert.Equal(t, code, 0)
	var names []string
	assert.NilError(t, json.Unmarshal([]byte(out), &names))
	assert.DeepEqual(t, names, []string{"n_name", "o_clerk", "r_name"})
}

func TestShow(t *testing.T) {
	path := newStore(t)

	code, out := run("show", "-d", path, "n_name")
	assert.Equal(t, code, 0)
	assert.Equal(t, out, "0\t0\tFRANCE\n1\t1\tGERMANY\n")

	code, out = run("show", "-d", path, "--json", "n_name")
	assert.Equal(t, code, 0)
	var entries []dictionary.Entry
	assert.NilError(t, json.Unmarshal([]byte(out), &entries))
	assert.DeepEqual(t, entries, []dictionary.Entry{{ID: 0, Order: 0, Str: "FRANCE"}, {ID: 1, Order: 1, Str: "GERMANY"}})

	code, _ = run("show", "-d", path, "c_name")
	assert.Equal(t, code, cli.ExitDictionaryNotFound)
}

func TestVerify(t *testing.T) {
	path := newStore(t)

	t.Run("valid", func(t *testing.T) {
		code, out := run("verify", "-d", path, "n_name")
		assert.Equal(t, code, 0)
		assert.Equal(t, out, "dictionary n_name is valid (2 entries)\n")

		code, _ = run("verify", "-d", path, "o_clerk")
		assert.Equal(t, code, 0)
	})

	t.Run("stale order", func(t *testing.T) {
		// both rows still have order 0
		code, out := run("verify", "-d", path, "r_name")
		assert.Equal(t, code, cli.ExitInvalidDictionary)
		assert.Equal(t, out, "Error: dictionary r_name needs a rebuild: order 0: order is used more than once\n")
	})
}
