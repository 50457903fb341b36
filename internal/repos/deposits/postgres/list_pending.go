package deposits

import (
	"context"
	"fmt"

	"github.com/dchirkin/provcore/internal/infra/pgutils"
	"github.com/dchirkin/provcore/internal/repos/deposits"
)

func (r *depositsRepo) ListPending(ctx context.Context) ([]deposits.Deposit, error) {
	ctx, cancel := pgutils.Bound(ctx, r.opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, amount_minor, channel, ext_ref, status, created_at, confirmed_at
		FROM deposits
		WHERE status = 'pending'
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending deposits: %w", pgutils.WrapTimeout(err))
	}
	defer rows.Close()

	var deps []deposits.Deposit
	for rows.Next() {
		dep, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending deposit: %w", err)
		}
		deps = append(deps, dep)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate pending deposits: %w", pgutils.WrapTimeout(err))
	}

	return deps, nil
}
