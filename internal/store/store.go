// Package store opens the engine's SQLite metadata store and exposes the
// few operations the dictionary tools need.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
	"github.com/tobsdb/grokit-tools/internal/dictionary"
	"github.com/tobsdb/grokit-tools/pkg"

	_ "modernc.org/sqlite"
)

// DefaultPath is where the engine keeps its metadata, relative to the
// directory it runs in.
const DefaultPath = "./datapath.sqlite"

const driverName = "sqlite"

// OpenError means the metadata store could not be opened or is not a
// SQLite database.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open metadata store %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

type Store struct {
	db   *sql.DB
	path string
}

var _ dictionary.Store = (*Store)(nil)

// Open opens an existing metadata store. Unlike sqlite itself it never
// creates a missing file.
func Open(path string) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &OpenError{path, err}
	}
	if !info.Mode().IsRegular() {
		return nil, &OpenError{path, errors.New("not a regular file")}
	}

	dsn, err := dataSourceName(path)
	if err != nil {
		return nil, &OpenError{path, err}
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, &OpenError{path, err}
	}
	// one connection so a transaction sees every statement of a rebuild
	db.SetMaxOpenConns(1)

	// sqlite reads the file header lazily; force it so a corrupt or
	// foreign file is rejected here.
	var n int
	if err := db.QueryRow(`SELECT count(*) FROM sqlite_master`).Scan(&n); err != nil {
		db.Close()
		return nil, &OpenError{path, err}
	}

	pkg.DebugLog("opened metadata store", path, "with", n, "schema entries")
	return &Store{db: db, path: path}, nil
}

// dataSourceName escapes path into a file: URI so nothing in the file name
// is read as a connection parameter. mode=rw stops sqlite from creating
// the file if it disappears after the Stat.
func dataSourceName(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := &url.URL{Scheme: "file", OmitHost: true, Path: filepath.ToSlash(abs), RawQuery: "mode=rw"}
	return u.String(), nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) HasTable(ctx context.Context, table string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, errors.Wrapf(err, "failed to look up table %s", table)
	}
	return n > 0, nil
}

// DictionaryTables returns the names of all dictionaries in the store,
// sorted.
func (s *Store) DictionaryTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tables")
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to list tables")
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list tables")
	}

	tables = pkg.Filter(tables, func(table string) bool {
		_, ok := dictionary.NameFromTable(table)
		return ok
	})
	names := pkg.MapSlice(tables, func(table string) string {
		name, _ := dictionary.NameFromTable(table)
		return name
	})
	slices.Sort(names)
	return names, nil
}
