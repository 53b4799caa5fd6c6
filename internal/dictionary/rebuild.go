package dictionary

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tobsdb/grokit-tools/pkg"
)

var ErrEmptyName = errors.New("dictionary name must not be empty")

// NotFoundError is returned when a dictionary has no table in the store.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dictionary %s does not exist (no table %s)", e.Name, TableName(e.Name))
}

// Store is the part of the metadata store a rebuild needs.
type Store interface {
	HasTable(ctx context.Context, table string) (bool, error)
	ReadPairs(ctx context.Context, table string) ([]Pair, error)
	// ReplaceEntries deletes every row of table and inserts entries
	// as a single transaction.
	ReplaceEntries(ctx context.Context, table string, entries []Entry) error
}

// Lookup checks that the named dictionary exists and returns its table.
func Lookup(ctx context.Context, s Store, name string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}
	table := TableName(name)
	ok, err := s.HasTable(ctx, table)
	if err != nil {
		return "", errors.Wrapf(err, "failed to look up dictionary %s", name)
	}
	if !ok {
		return "", &NotFoundError{Name: name}
	}
	return table, nil
}

// Rebuild deduplicates the named dictionary and renumbers its order
// column. Nothing is written unless the table exists and could be read
// completely.
func Rebuild(ctx context.Context, s Store, name string) error {
	table, err := Lookup(ctx, s, name)
	if err != nil {
		return err
	}

	pairs, err := s.ReadPairs(ctx, table)
	if err != nil {
		return errors.Wrapf(err, "failed to read dictionary %s", name)
	}

	entries, err := Order(pairs)
	if err != nil {
		return err
	}
	pkg.DebugLog("dictionary", name, "read", len(pairs), "rows,", len(entries), "distinct")

	if err := s.ReplaceEntries(ctx, table, entries); err != nil {
		return errors.Wrapf(err, "failed to rewrite dictionary %s", name)
	}
	pkg.DebugLog("dictionary", name, "rebuilt")
	return nil
}
