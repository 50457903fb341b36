package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dchirkin/provcore/internal/repos/deposits"
)

// CheckPending is the periodic pass. It lists every pending deposit, asks
// the verifier about each one, and applies the resulting transition.
//
// A failure on one deposit never stops the pass; the error is logged and
// the loop moves on, so a slow or broken payment reference cannot starve
// the rest of the queue. The pass returns an error only when the initial
// listing itself fails.
func (s *Service) CheckPending(ctx context.Context) error {
	pending, err := s.deposits.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending deposits: %w", err)
	}

	for _, dep := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.checkOne(ctx, dep); err != nil {
			slog.Error("deposit check failed",
				"deposit_id", dep.ID,
				"account_id", dep.AccountID,
				"error", err,
			)
		}
	}

	return nil
}

func (s *Service) checkOne(ctx context.Context, dep deposits.Deposit) error {
	v, err := s.verifier.Verify(ctx, dep)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	switch v.Status {
	case VerificationConfirmed:
		amount := v.AmountMinor
		if amount == 0 {
			amount = dep.AmountMinor
		}
		_, err := s.Reconcile(ctx, dep.ID, v.Ref, amount)
		return err
	case VerificationInvalid:
		_, err := s.MarkFailed(ctx, dep.ID, v.Ref)
		return err
	case VerificationPending:
		return nil
	default:
		return fmt.Errorf("unexpected verification status %d", v.Status)
	}
}
