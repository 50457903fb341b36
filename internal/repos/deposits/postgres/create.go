package deposits

import (
	"context"
	"fmt"

	"github.com/dchirkin/provcore/internal/infra/pgutils"
	"github.com/dchirkin/provcore/internal/repos/deposits"
)

func (r *depositsRepo) Create(ctx context.Context, accountID int64, amountMinor int64, channel deposits.Channel) (deposits.Deposit, error) {
	ctx, cancel := pgutils.Bound(ctx, r.opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO deposits (account_id, amount_minor, channel, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, account_id, amount_minor, channel, ext_ref, status, created_at, confirmed_at
	`, accountID, amountMinor, channel)

	dep, err := scanDeposit(row)
	if err != nil {
		return deposits.Deposit{}, fmt.Errorf("create deposit: %w", pgutils.WrapTimeout(err))
	}

	return dep, nil
}
