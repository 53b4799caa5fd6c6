package dictionary

import (
	"fmt"
	"slices"
)

// InvariantError describes the first row of a dictionary table that
// breaks the rebuilt form.
type InvariantError struct {
	Order  int64
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("order %d: %s", e.Order, e.Reason)
}

// Verify reports whether entries are in rebuilt form: orders are exactly
// 0..N-1, pairs are distinct and order follows Compare.
func Verify(entries []Entry) error {
	by_order := slices.Clone(entries)
	slices.SortStableFunc(by_order, func(a, b Entry) int {
		switch {
		case a.Order < b.Order:
			return -1
		case a.Order > b.Order:
			return 1
		}
		return 0
	})

	for i, e := range by_order {
		if e.Order != int64(i) {
			if i > 0 && e.Order == by_order[i-1].Order {
				return &InvariantError{e.Order, "order is used more than once"}
			}
			return &InvariantError{int64(i), fmt.Sprintf("order is missing (next is %d)", e.Order)}
		}
		if i == 0 {
			continue
		}
		prev := by_order[i-1]
		switch c := Compare(prev.Pair(), e.Pair()); {
		case c == 0:
			return &InvariantError{e.Order, fmt.Sprintf("duplicate pair (%q, %d)", e.Str, e.ID)}
		case c > 0:
			return &InvariantError{e.Order, fmt.Sprintf("pair (%q, %d) sorts before (%q, %d)",
				e.Str, e.ID, prev.Str, prev.ID)}
		}
	}
	return nil
}
