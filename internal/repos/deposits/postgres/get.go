package deposits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dchirkin/provcore/internal/infra/pgutils"
	"github.com/dchirkin/provcore/internal/repos/deposits"
)

func (r *depositsRepo) Get(ctx context.Context, id int64) (deposits.Deposit, error) {
	ctx, cancel := pgutils.Bound(ctx, r.opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, amount_minor, channel, ext_ref, status, created_at, confirmed_at
		FROM deposits
		WHERE id = $1
	`, id)

	dep, err := scanDeposit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return deposits.Deposit{}, deposits.ErrDepositNotFound
		}

		return deposits.Deposit{}, fmt.Errorf("get deposit: %w", pgutils.WrapTimeout(err))
	}

	return dep, nil
}
