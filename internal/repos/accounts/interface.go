package accounts

import (
	"context"
	"database/sql"
	"errors"
)

var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrAccountNotFound = errors.New("account not found")

// Accounts owns the balance column. Balances move in minor units and only
// inside the transactions the reconcile and renewal flows open: Credit as the
// second half of a won deposit confirmation, Debit as the first half of an
// auto-renewal.
type Accounts interface {
	Ensure(tx *sql.Tx, accountID int64) error
	GetBalance(ctx context.Context, accountID int64) (int64, error)
	Credit(tx *sql.Tx, accountID int64, amountMinor int64) error
	// Debit subtracts amountMinor only while the balance covers it; otherwise
	// ErrInsufficientFunds. The guard lives in the statement itself, so two
	// concurrent debits cannot both pass a stale pre-check.
	Debit(tx *sql.Tx, accountID int64, amountMinor int64) error
}
