package deposits

import (
	"database/sql"
	"time"

	"github.com/dchirkin/provcore/internal/repos/deposits"
)

var _ deposits.Deposits = (*depositsRepo)(nil)

type depositsRepo struct {
	db        *sql.DB
	opTimeout time.Duration
}

func New(db *sql.DB, opTimeout time.Duration) *depositsRepo {
	return &depositsRepo{db: db, opTimeout: opTimeout}
}

// scanDeposit reads one row in the canonical column order:
// id, account_id, amount_minor, channel, ext_ref, status, created_at, confirmed_at.
func scanDeposit(row interface{ Scan(...any) error }) (deposits.Deposit, error) {
	var (
		dep         deposits.Deposit
		extRef      sql.NullString
		confirmedAt sql.NullTime
	)

	err := row.Scan(
		&dep.ID,
		&dep.AccountID,
		&dep.AmountMinor,
		&dep.Channel,
		&extRef,
		&dep.Status,
		&dep.CreatedAt,
		&confirmedAt,
	)
	if err != nil {
		return deposits.Deposit{}, err
	}

	if extRef.Valid {
		dep.ExtRef = extRef.String
	}
	if confirmedAt.Valid {
		dep.ConfirmedAt = confirmedAt.Time
	}

	return dep, nil
}
