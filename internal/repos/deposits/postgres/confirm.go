package deposits

import (
	"database/sql"
	"errors"
	"fmt"
)

// Confirm performs the compare-and-swap transition pending -> confirmed.
// RETURNING only fires when the conditional write hit a row, so ErrNoRows is
// the lost-race signal, not a failure.
func (r *depositsRepo) Confirm(tx *sql.Tx, id int64, extRef string) (int64, bool, error) {
	var accountID int64

	err := tx.QueryRow(`
		UPDATE deposits
		SET status = 'confirmed',
		    ext_ref = $2,
		    confirmed_at = now()
		WHERE id = $1
		  AND status = 'pending'
		RETURNING account_id
	`, id, extRef).Scan(&accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("confirm deposit: %w", err)
	}

	return accountID, true, nil
}
