package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tobsdb/grokit-tools/internal/dictionary"
	"github.com/tobsdb/grokit-tools/pkg"
)

// InsertBatchSize is the number of rows per INSERT statement.
// 3 parameters per row keeps a batch under sqlite's oldest
// 999-parameter limit.
const InsertBatchSize = 256

type TransactionCtx struct {
	tx *sql.Tx
	id uuid.UUID

	startTime time.Time
	finished  bool
}

func (s *Store) Begin(ctx context.Context) (*TransactionCtx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	t := &TransactionCtx{tx: tx, id: uuid.Must(uuid.NewV7()), startTime: time.Now()}
	pkg.DebugLog("transaction", t.id, "started")
	return t, nil
}

func (t *TransactionCtx) Id() uuid.UUID { return t.id }

// DeleteAll removes every row of table and returns how many were removed.
func (t *TransactionCtx) DeleteAll(ctx context.Context, table string) (int64, error) {
	res, err := t.tx.ExecContext(ctx, "DELETE FROM "+pkg.QuoteIdent(table))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to clear %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to clear %s", table)
	}
	return n, nil
}

func (t *TransactionCtx) InsertEntries(ctx context.Context, table string, entries []dictionary.Entry) error {
	for start := 0; start < len(entries); start += InsertBatchSize {
		batch := entries[start:min(start+InsertBatchSize, len(entries))]
		args := make([]any, 0, len(batch)*3)
		for _, e := range batch {
			args = append(args, e.ID, e.Order, e.Str)
		}
		if _, err := t.tx.ExecContext(ctx, insertStatement(table, len(batch)), args...); err != nil {
			return errors.Wrapf(err, "failed to insert rows %d..%d into %s", start, start+len(batch)-1, table)
		}
	}
	return nil
}

func insertStatement(table string, rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pkg.QuoteIdent(table))
	b.WriteString(` ("id", "order", "str") VALUES `)
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?)")
	}
	return b.String()
}

func (t *TransactionCtx) Commit() error {
	// a failed commit also ends the transaction
	t.finished = true
	if err := t.tx.Commit(); err != nil {
		return errors.Wrapf(err, "failed to commit transaction %s", t.id)
	}
	pkg.DebugLog("transaction", t.id, "committed after", time.Since(t.startTime))
	return nil
}

// Rollback discards the transaction. It does nothing once the transaction
// has been committed or rolled back.
func (t *TransactionCtx) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if err := t.tx.Rollback(); err != nil {
		return errors.Wrapf(err, "failed to roll back transaction %s", t.id)
	}
	pkg.DebugLog("transaction", t.id, "rolled back")
	return nil
}

// ReplaceEntries swaps the content of table for entries atomically: on any
// error the table keeps its previous rows.
func (s *Store) ReplaceEntries(ctx context.Context, table string, entries []dictionary.Entry) error {
	t, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := t.Rollback(); err != nil {
			pkg.ErrorLog(err)
		}
	}()

	deleted, err := t.DeleteAll(ctx, table)
	if err != nil {
		return err
	}
	if err := t.InsertEntries(ctx, table, entries); err != nil {
		return err
	}
	pkg.DebugLog("replacing", deleted, "rows of", table, "with", len(entries))
	return t.Commit()
}
