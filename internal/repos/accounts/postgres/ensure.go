package accounts

import (
	"database/sql"
	"fmt"
)

// Ensure makes the account row exist with a zero balance. Used when a payment
// intent arrives for an account the engine has not seen yet.
func (r *accountsRepo) Ensure(tx *sql.Tx, accountID int64) error {
	_, err := tx.Exec(`
		INSERT INTO accounts (id, balance)
		VALUES ($1, 0)
		ON CONFLICT (id) DO NOTHING
	`, accountID)
	if err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}

	return nil
}
