package orders

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dchirkin/provcore/internal/infra/pgutils"
	"github.com/dchirkin/provcore/internal/repos/orders"
)

func (r *ordersRepo) ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]orders.Order, error) {
	ctx, cancel := pgutils.Bound(ctx, r.opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status IN ('active', 'processing')
		  AND expires_at IS NOT NULL
		  AND expires_at > $1
		  AND expires_at <= $2
		ORDER BY expires_at
	`, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("list expiring orders: %w", pgutils.WrapTimeout(err))
	}
	defer rows.Close()

	var out []orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expiring order: %w", err)
		}
		out = append(out, o)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate expiring orders: %w", pgutils.WrapTimeout(err))
	}

	return out, nil
}

func (r *ordersRepo) ExtendExpiry(tx *sql.Tx, id int64, months int) error {
	res, err := tx.Exec(`
		UPDATE orders
		SET expires_at = expires_at + make_interval(months => $2)
		WHERE id = $1
		  AND status IN ('active', 'processing')
	`, id, months)
	if err != nil {
		return fmt.Errorf("extend expiry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return orders.ErrOrderNotFound
	}

	return nil
}
