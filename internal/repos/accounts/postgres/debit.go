package accounts

import (
	"database/sql"
	"fmt"

	"github.com/dchirkin/provcore/internal/repos/accounts"
)

func (r *accountsRepo) Debit(tx *sql.Tx, accountID int64, amountMinor int64) error {
	res, err := tx.Exec(`
		UPDATE accounts
		SET balance = balance - $2
		WHERE id = $1
		  AND balance >= $2
	`, accountID, amountMinor)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return accounts.ErrInsufficientFunds
	}

	return nil
}
