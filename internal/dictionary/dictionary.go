// Package dictionary rebuilds the engine's string-interning tables.
//
// A dictionary named "x" lives in the metadata store as the table
// "Dictionary_x" with the columns "id", "order" and "str". Over time the
// engine may append the same (str, id) pair more than once and leave the
// "order" column stale. A rebuild collapses duplicate pairs and renumbers
// "order" densely from zero in ascending (str, id) order.
package dictionary

import (
	"slices"
	"strings"

	"github.com/pkg/errors"
	sorted "github.com/tobshub/go-sortedmap"
	"github.com/tobsdb/grokit-tools/pkg"
)

const TablePrefix = "Dictionary_"

// Pair is one distinct string-to-id mapping.
type Pair struct {
	Str string
	ID  int64
}

// Entry is a row of a rebuilt dictionary table.
type Entry struct {
	ID    int64  `json:"id"`
	Order int64  `json:"order"`
	Str   string `json:"str"`
}

func (e Entry) Pair() Pair { return Pair{Str: e.Str, ID: e.ID} }

func TableName(name string) string { return TablePrefix + name }

// NameFromTable returns the dictionary name of a table, or false if the
// table is not a dictionary table.
func NameFromTable(table string) (string, bool) {
	if !strings.HasPrefix(table, TablePrefix) || len(table) == len(TablePrefix) {
		return "", false
	}
	return strings.TrimPrefix(table, TablePrefix), true
}

// Compare orders pairs by string first (bytewise, like SQLite's BINARY
// collation) and then by id.
func Compare(a, b Pair) int {
	if c := strings.Compare(a.Str, b.Str); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

func pairLess(a, b Pair) bool { return Compare(a, b) < 0 }

// Order collapses duplicate pairs and assigns each distinct pair its
// zero-based position in ascending (str, id) order.
func Order(pairs []Pair) ([]Entry, error) {
	distinct := pkg.NewSet(pairs...).Keys()
	slices.SortFunc(distinct, Compare)

	// sorted input makes every Insert an append
	m := sorted.New[Pair, Pair](len(distinct), pairLess)
	for _, p := range distinct {
		m.Insert(p, p)
	}

	entries := make([]Entry, 0, m.Len())
	if m.Len() == 0 {
		return entries, nil
	}

	iter_ch, err := m.IterCh()
	if err != nil {
		return nil, errors.Wrap(err, "failed to iterate dictionary pairs")
	}
	for rec := range iter_ch.Records() {
		entries = append(entries, Entry{
			ID:    rec.Val.ID,
			Order: int64(len(entries)),
			Str:   rec.Val.Str,
		})
	}
	return entries, nil
}
