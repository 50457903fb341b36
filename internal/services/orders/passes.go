package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dchirkin/provcore/internal/infra/pgutils"
	"github.com/dchirkin/provcore/internal/repos/accounts"
	"github.com/dchirkin/provcore/internal/repos/orders"
)

// ExpireDue is the periodic expiration pass. The bulk conditional update in
// the repo does the flipping; this pass only deals with the aftermath, one
// owner notification per expired order.
func (s *Service) ExpireDue(ctx context.Context) error {
	expired, err := s.orders.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("expire due orders: %w", err)
	}

	if len(expired) == 0 {
		return nil
	}

	slog.Info("orders expired", "count", len(expired))

	for _, e := range expired {
		s.notifyOwner(ctx, e.AccountID, fmt.Sprintf("Order #%d has expired.", e.ID))
	}

	return nil
}

// CheckRenewals is the periodic renewal pass over orders expiring within the
// renewal window.
//
// An auto-renew order is charged with a conditional debit and its expiry is
// pushed out by the billing period, both in one transaction. An order whose
// balance cannot cover the price, and every order without auto-renew, gets a
// reminder instead. A failure on one order never stops the pass.
func (s *Service) CheckRenewals(ctx context.Context) error {
	expiring, err := s.orders.ListExpiringWithin(ctx, time.Now().UTC(), s.renewWindow)
	if err != nil {
		return fmt.Errorf("list expiring orders: %w", err)
	}

	for _, o := range expiring {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.renewOne(ctx, o); err != nil {
			slog.Error("renewal failed",
				"order_id", o.ID,
				"account_id", o.AccountID,
				"error", err,
			)
		}
	}

	return nil
}

func (s *Service) renewOne(ctx context.Context, o orders.Order) error {
	if !o.AutoRenew {
		s.notifyOwner(ctx, o.AccountID,
			fmt.Sprintf("Order #%d expires on %s. Renew it to keep the server.", o.ID, o.ExpiresAt.Format("2006-01-02")))
		return nil
	}

	ctx, cancel := pgutils.Bound(ctx, s.opTimeout)
	defer cancel()

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.accounts.Debit(tx, o.AccountID, o.PriceMinor); err != nil {
			return err
		}
		return s.orders.ExtendExpiry(tx, o.ID, o.Months)
	})

	switch {
	case errors.Is(err, accounts.ErrInsufficientFunds):
		s.notifyOwner(ctx, o.AccountID,
			fmt.Sprintf("Order #%d expires on %s but your balance cannot cover the renewal. Top up to keep the server.", o.ID, o.ExpiresAt.Format("2006-01-02")))
		return nil
	case err != nil:
		return fmt.Errorf("renew order %d: %w", o.ID, pgutils.WrapTimeout(err))
	}

	slog.Info("order renewed", "order_id", o.ID, "account_id", o.AccountID, "months", o.Months)
	s.notifyOwner(ctx, o.AccountID,
		fmt.Sprintf("Order #%d renewed for %d month(s).", o.ID, o.Months))

	return nil
}
