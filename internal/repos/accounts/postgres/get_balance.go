package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dchirkin/provcore/internal/infra/pgutils"
	"github.com/dchirkin/provcore/internal/repos/accounts"
)

func (r *accountsRepo) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	ctx, cancel := pgutils.Bound(ctx, r.opTimeout)
	defer cancel()

	var balance int64

	err := r.db.QueryRowContext(ctx, `
		SELECT balance
		FROM accounts
		WHERE id = $1
	`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, accounts.ErrAccountNotFound
		}

		return 0, fmt.Errorf("get balance: %w", pgutils.WrapTimeout(err))
	}

	return balance, nil
}
