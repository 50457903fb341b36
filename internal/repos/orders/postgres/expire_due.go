package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/dchirkin/provcore/internal/infra/pgutils"
	"github.com/dchirkin/provcore/internal/repos/orders"
)

// ExpireDue is a bulk conditional write: whichever pass gets here first flips
// the overdue rows, a concurrent pass flips none and notifies no one twice.
func (r *ordersRepo) ExpireDue(ctx context.Context, now time.Time) ([]orders.ExpiredOrder, error) {
	ctx, cancel := pgutils.Bound(ctx, r.opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		UPDATE orders
		SET status = 'expired'
		WHERE status IN ('active', 'processing')
		  AND expires_at IS NOT NULL
		  AND expires_at <= $1
		RETURNING id, account_id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("expire due orders: %w", pgutils.WrapTimeout(err))
	}
	defer rows.Close()

	var expired []orders.ExpiredOrder
	for rows.Next() {
		var e orders.ExpiredOrder
		if err := rows.Scan(&e.ID, &e.AccountID); err != nil {
			return nil, fmt.Errorf("scan expired order: %w", err)
		}
		expired = append(expired, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate expired orders: %w", pgutils.WrapTimeout(err))
	}

	return expired, nil
}
