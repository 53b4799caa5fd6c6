package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tobsdb/grokit-tools/internal/dictionary"
	"github.com/tobsdb/grokit-tools/pkg"
)

// ReadPairs returns every (str, id) row of table, duplicates included.
func (s *Store) ReadPairs(ctx context.Context, table string) ([]dictionary.Pair, error) {
	q := fmt.Sprintf(`SELECT "str", "id" FROM %s`, pkg.QuoteIdent(table))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query %s", table)
	}
	defer rows.Close()

	pairs := []dictionary.Pair{}
	for rows.Next() {
		var str sql.NullString
		var id sql.NullInt64
		if err := rows.Scan(&str, &id); err != nil {
			return nil, errors.Wrapf(err, "failed to read row %d of %s", len(pairs), table)
		}
		if !str.Valid || !id.Valid {
			return nil, fmt.Errorf("row %d of %s has a NULL str or id", len(pairs), table)
		}
		pairs = append(pairs, dictionary.Pair{Str: str.String, ID: id.Int64})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", table)
	}
	return pairs, nil
}

// ReadEntries returns the rows of table sorted by order. A NULL order is
// reported as -1 so Verify flags it.
func (s *Store) ReadEntries(ctx context.Context, table string) ([]dictionary.Entry, error) {
	q := fmt.Sprintf(`SELECT "id", "order", "str" FROM %s ORDER BY "order", "str", "id"`,
		pkg.QuoteIdent(table))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query %s", table)
	}
	defer rows.Close()

	entries := []dictionary.Entry{}
	for rows.Next() {
		var id, order sql.NullInt64
		var str sql.NullString
		if err := rows.Scan(&id, &order, &str); err != nil {
			return nil, errors.Wrapf(err, "failed to read row %d of %s", len(entries), table)
		}
		if !str.Valid || !id.Valid {
			return nil, fmt.Errorf("row %d of %s has a NULL str or id", len(entries), table)
		}
		e := dictionary.Entry{ID: id.Int64, Order: -1, Str: str.String}
		if order.Valid {
			e.Order = order.Int64
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", table)
	}
	return entries, nil
}
