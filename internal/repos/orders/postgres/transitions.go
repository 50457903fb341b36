package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/dchirkin/provcore/internal/infra/pgutils"
)

// transition runs one conditional status write and reports whether it landed.
func (r *ordersRepo) transition(ctx context.Context, name, stmt string, args ...any) (bool, error) {
	ctx, cancel := pgutils.Bound(ctx, r.opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, pgutils.WrapTimeout(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows affected: %w", name, err)
	}

	return affected == 1, nil
}

func (r *ordersRepo) MarkProcessing(ctx context.Context, id int64) (bool, error) {
	return r.transition(ctx, "mark order processing", `
		UPDATE orders
		SET status = 'processing'
		WHERE id = $1
		  AND status = 'pending'
	`, id)
}

func (r *ordersRepo) Activate(ctx context.Context, id int64, host, login, pass string, expiresAt time.Time) (bool, error) {
	return r.transition(ctx, "activate order", `
		UPDATE orders
		SET status = 'active',
		    server_host = $2,
		    server_login = $3,
		    server_pass = $4,
		    expires_at = $5
		WHERE id = $1
		  AND status = 'processing'
	`, id, host, login, pass, expiresAt)
}

func (r *ordersRepo) RevertProcessing(ctx context.Context, id int64) (bool, error) {
	return r.transition(ctx, "revert order to pending", `
		UPDATE orders
		SET status = 'pending'
		WHERE id = $1
		  AND status = 'processing'
	`, id)
}

func (r *ordersRepo) MarkFailed(ctx context.Context, id int64) (bool, error) {
	return r.transition(ctx, "mark order failed", `
		UPDATE orders
		SET status = 'failed'
		WHERE id = $1
		  AND status = 'processing'
	`, id)
}

func (r *ordersRepo) MarkDeleted(ctx context.Context, id int64) (bool, error) {
	return r.transition(ctx, "mark order deleted", `
		UPDATE orders
		SET status = 'deleted'
		WHERE id = $1
		  AND status IN ('active', 'processing')
	`, id)
}
