// Package reconcile moves deposits from pending to confirmed or failed and
// credits balances exactly once.
//
// The protocol takes no lock. Correctness rests on the storage layer's
// conditional write: the pending -> confirmed update only lands if the row
// is still pending, and the affected-row count decides which concurrent
// caller won. That holds across goroutines and across bot instances sharing
// one database.
package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dchirkin/provcore/internal/infra/pgutils"
	"github.com/dchirkin/provcore/internal/metrics"
	"github.com/dchirkin/provcore/internal/notify"
	"github.com/dchirkin/provcore/internal/repos/accounts"
	pgaccounts "github.com/dchirkin/provcore/internal/repos/accounts/postgres"
	"github.com/dchirkin/provcore/internal/repos/deposits"
	pgdeposits "github.com/dchirkin/provcore/internal/repos/deposits/postgres"
)

type Service struct {
	db        *sql.DB
	deposits  deposits.Deposits
	accounts  accounts.Accounts
	verifier  Verifier
	notifier  notify.Notifier
	opTimeout time.Duration
}

func New(db *sql.DB, verifier Verifier, notifier notify.Notifier, opTimeout time.Duration) *Service {
	return &Service{
		db:        db,
		deposits:  pgdeposits.New(db, opTimeout),
		accounts:  pgaccounts.New(db, opTimeout),
		verifier:  verifier,
		notifier:  notifier,
		opTimeout: opTimeout,
	}
}

// Reconcile runs the confirm-and-credit transition for one deposit:
//
// 1) Conditionally flip pending -> confirmed, recording extRef.
// 2) If this caller won the flip, credit the account in the same DB
//    transaction.
// 3) Notify the owner (failure logged, never rolled back).
//
// Safe to call concurrently from any number of passes or processes; losers
// get OutcomeAlreadyDone and touch nothing.
func (s *Service) Reconcile(ctx context.Context, depositID int64, extRef string, amountMinor int64) (Outcome, error) {
	ctx, cancel := pgutils.Bound(ctx, s.opTimeout)
	defer cancel()

	outcome := OutcomeAlreadyDone
	var accountID int64

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var won bool
		var err error

		accountID, won, err = s.deposits.Confirm(tx, depositID, extRef)
		if err != nil {
			return err
		}
		if !won {
			// Another pass finished this transition; no credit from us.
			return nil
		}

		err = s.accounts.Credit(tx, accountID, amountMinor)
		if err != nil {
			return err
		}

		outcome = OutcomeConfirmed

		return nil
	})
	if err != nil {
		return OutcomeAlreadyDone, fmt.Errorf("reconcile deposit %d: %w", depositID, pgutils.WrapTimeout(err))
	}

	metrics.ReconcileOutcomes.WithLabelValues(outcome.String()).Inc()

	if outcome == OutcomeConfirmed {
		slog.Info("deposit confirmed",
			"deposit_id", depositID,
			"account_id", accountID,
			"amount_minor", amountMinor,
			"ext_ref", extRef,
		)

		nerr := s.notifier.Notify(ctx, accountID,
			fmt.Sprintf("Deposit #%d confirmed: %s credited to your balance.", depositID, formatMinor(amountMinor)))
		if nerr != nil {
			slog.Error("deposit confirmation notify failed",
				"deposit_id", depositID,
				"account_id", accountID,
				"error", nerr,
			)
		}
	}

	return outcome, nil
}

// MarkFailed flips a deposit pending -> failed under the same win/lose
// semantics. No credit on any path.
func (s *Service) MarkFailed(ctx context.Context, depositID int64, reason string) (Outcome, error) {
	won, err := s.deposits.MarkFailed(ctx, depositID)
	if err != nil {
		return OutcomeAlreadyDone, fmt.Errorf("fail deposit %d: %w", depositID, err)
	}
	if !won {
		metrics.ReconcileOutcomes.WithLabelValues(OutcomeAlreadyDone.String()).Inc()
		return OutcomeAlreadyDone, nil
	}

	slog.Warn("deposit failed", "deposit_id", depositID, "reason", reason)
	metrics.ReconcileOutcomes.WithLabelValues(OutcomeFailed.String()).Inc()

	return OutcomeFailed, nil
}

// CreateDeposit records a new payment intent.
func (s *Service) CreateDeposit(ctx context.Context, accountID, amountMinor int64, channel deposits.Channel) (deposits.Deposit, error) {
	ctx, cancel := pgutils.Bound(ctx, s.opTimeout)
	defer cancel()

	// Make sure the balance row exists before the deposit references it.
	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.accounts.Ensure(tx, accountID)
	})
	if err != nil {
		return deposits.Deposit{}, fmt.Errorf("ensure account %d: %w", accountID, pgutils.WrapTimeout(err))
	}

	return s.deposits.Create(ctx, accountID, amountMinor, channel)
}

func (s *Service) GetDeposit(ctx context.Context, id int64) (deposits.Deposit, error) {
	return s.deposits.Get(ctx, id)
}

func (s *Service) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	return s.accounts.GetBalance(ctx, accountID)
}

func formatMinor(v int64) string {
	return fmt.Sprintf("$%d.%02d", v/100, v%100)
}
