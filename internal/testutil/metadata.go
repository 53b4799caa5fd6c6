// Package testutil builds metadata store fixtures for tests.
package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/tobsdb/grokit-tools/internal/dictionary"
	"github.com/tobsdb/grokit-tools/pkg"
	"gotest.tools/assert"

	_ "modernc.org/sqlite"
)

// Same DDL the engine runs before it first loads a dictionary.
const createDictionary = `CREATE TABLE IF NOT EXISTS %s (
    "id"          INTEGER,
    "order"       INTEGER,
    "str"         TEXT);`

// NewMetadataStore creates datapath.sqlite in a temporary directory with
// one table per dictionary holding the given rows (order left as 0) and
// returns its path.
func NewMetadataStore(t testing.TB, dicts map[string][]dictionary.Pair) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datapath.sqlite")

	db := openDB(t, path)
	defer db.Close()

	// an unrelated engine table that must never be touched
	_, err := db.Exec(`CREATE TABLE "Relations" ("relName" TEXT, "relID" INTEGER)`)
	assert.NilError(t, err)
	_, err = db.Exec(`INSERT INTO "Relations" VALUES ('lineitem', 1)`)
	assert.NilError(t, err)

	for name, pairs := range dicts {
		table := pkg.QuoteIdent(dictionary.TableName(name))
		_, err := db.Exec(fmt.Sprintf(createDictionary, table))
		assert.NilError(t, err)
		for _, p := range pairs {
			_, err := db.Exec(`INSERT INTO `+table+` ("id", "order", "str") VALUES (?, 0, ?)`, p.ID, p.Str)
			assert.NilError(t, err)
		}
	}
	return path
}

// Exec runs raw statements against the store at path.
func Exec(t testing.TB, path string, stmts ...string) {
	t.Helper()
	db := openDB(t, path)
	defer db.Close()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		assert.NilError(t, err, stmt)
	}
}

// Rows returns every row of a dictionary table in storage order.
func Rows(t testing.TB, path, name string) []dictionary.Entry {
	t.Helper()
	db := openDB(t, path)
	defer db.Close()

	rows, err := db.Query(`SELECT "id", "order", "str" FROM ` + pkg.QuoteIdent(dictionary.TableName(name)))
	assert.NilError(t, err)
	defer rows.Close()

	entries := []dictionary.Entry{}
	for rows.Next() {
		var e dictionary.Entry
		assert.NilError(t, rows.Scan(&e.ID, &e.Order, &e.Str))
		entries = append(entries, e)
	}
	assert.NilError(t, rows.Err())
	return entries
}

// SortedPairs returns the pairs of a dictionary table in the order sqlite
// itself sorts them.
func SortedPairs(t testing.TB, path, name string) []dictionary.Pair {
	t.Helper()
	db := openDB(t, path)
	defer db.Close()

	rows, err := db.Query(`SELECT "str", "id" FROM ` + pkg.QuoteIdent(dictionary.TableName(name)) + ` ORDER BY "str", "id"`)
	assert.NilError(t, err)
	defer rows.Close()

	pairs := []dictionary.Pair{}
	for rows.Next() {
		var p dictionary.Pair
		assert.NilError(t, rows.Scan(&p.Str, &p.ID))
		pairs = append(pairs, p)
	}
	assert.NilError(t, rows.Err())
	return pairs
}

func openDB(t testing.TB, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	assert.NilError(t, err)
	return db
}
