package orders

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dchirkin/provcore/internal/infra/pgutils"
	"github.com/dchirkin/provcore/internal/repos/orders"
)

// Create places a new order, paying for the first billing period from the
// account balance. The debit and the order row land in one transaction, so
// an insufficient balance leaves no order behind.
func (s *Service) Create(ctx context.Context, o orders.Order) (orders.Order, error) {
	ctx, cancel := pgutils.Bound(ctx, s.opTimeout)
	defer cancel()

	var created orders.Order

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.accounts.Ensure(tx, o.AccountID); err != nil {
			return err
		}
		if err := s.accounts.Debit(tx, o.AccountID, o.PriceMinor); err != nil {
			return err
		}

		var err error
		created, err = s.orders.Create(tx, o)
		return err
	})
	if err != nil {
		return orders.Order{}, fmt.Errorf("place order for account %d: %w", o.AccountID, pgutils.WrapTimeout(err))
	}

	return created, nil
}
