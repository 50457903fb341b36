package deposits

import (
	"context"
	"fmt"

	"github.com/dchirkin/provcore/internal/infra/pgutils"
)

// MarkFailed flips pending -> failed. Same win/lose semantics as Confirm,
// but it stands alone: no credit follows, so no surrounding transaction.
func (r *depositsRepo) MarkFailed(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := pgutils.Bound(ctx, r.opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE deposits
		SET status = 'failed'
		WHERE id = $1
		  AND status = 'pending'
	`, id)
	if err != nil {
		return false, fmt.Errorf("mark deposit failed: %w", pgutils.WrapTimeout(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected == 1, nil
}
