package pgutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WithTx runs fn inside a transaction.
// It commits if fn returns nil, otherwise it rolls back.
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil) // default isolation level
	if err != nil {
		return fmt.Errorf("begin tx: %w", WrapTimeout(err))
	}

	err = fn(tx)
	if err != nil {
		// When the bounded context expires mid-statement, database/sql has
		// already rolled the transaction back and the statement error is
		// whatever the dying connection reported. The deadline is the cause
		// either way.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("fn: %v: %w", err, ErrStorageTimeout)
		}

		rbErr := tx.Rollback()
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback after fn error: %v (fn err: %w)", rbErr, err)
		}
		return fmt.Errorf("fn: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("commit tx: %v: %w", err, ErrStorageTimeout)
		}
		return fmt.Errorf("commit tx: %w", WrapTimeout(err))
	}

	return nil
}
