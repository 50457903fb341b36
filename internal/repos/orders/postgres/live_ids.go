package orders

import (
	"context"
	"fmt"

	"github.com/dchirkin/provcore/internal/infra/pgutils"
)

func (r *ordersRepo) LiveIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := pgutils.Bound(ctx, r.opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id
		FROM orders
		WHERE status IN ('active', 'processing')
	`)
	if err != nil {
		return nil, fmt.Errorf("list live order ids: %w", pgutils.WrapTimeout(err))
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate live order ids: %w", pgutils.WrapTimeout(err))
	}

	return ids, nil
}
