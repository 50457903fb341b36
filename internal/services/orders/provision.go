package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dchirkin/provcore/internal/provision"
	"github.com/dchirkin/provcore/internal/repos/orders"
	"github.com/dchirkin/provcore/pkg/cmdrun"
)

var (
	ErrNotClaimable = errors.New("order is not in a claimable state")
	ErrNotLive      = errors.New("order is not live")
)

// Provision takes a pending order through the external provisioning script
// and activates it.
//
// The pending -> processing flip is the claim: of any number of concurrent
// triggers for the same order, exactly one proceeds past it. The script runs
// under its wall-clock budget while the claim is held.
//
//   - Script timeout: the claim is reverted so a later trigger can retry,
//     and the admin is told.
//   - Script declared failure (non-zero exit): the order fails terminally
//     with the captured output escalated.
//   - Success: credentials are stored and the order activates with expiry
//     months from now.
func (s *Service) Provision(ctx context.Context, orderID int64) error {
	h := s.locks.Acquire(orderID)
	defer h.Release()

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", orderID, err)
	}

	won, err := s.orders.MarkProcessing(ctx, orderID)
	if err != nil {
		return fmt.Errorf("claim order %d: %w", orderID, err)
	}
	if !won {
		return fmt.Errorf("%w: order %d is %s", ErrNotClaimable, orderID, o.Status)
	}

	creds, err := s.scripts.Provision(ctx, o.Protocol, o.ConfigCount, o.Months)
	if err != nil {
		return s.failProvision(ctx, o, err)
	}

	expiresAt := time.Now().UTC().AddDate(0, o.Months, 0)

	won, err = s.orders.Activate(ctx, orderID, creds.Host, creds.Login, creds.Password, expiresAt)
	if err != nil {
		return fmt.Errorf("activate order %d: %w", orderID, err)
	}
	if !won {
		// Someone flipped the order out of processing under us. The server
		// is up but unrecorded; this needs a human.
		s.notifyAdmin(ctx, fmt.Sprintf("Order #%d: provisioned host %s but activation lost the state race.", orderID, creds.Host))
		return fmt.Errorf("order %d left processing during provisioning", orderID)
	}

	s.notifyOwner(ctx, o.AccountID, fmt.Sprintf("Order #%d is ready. Server: %s", orderID, creds.Host))

	return nil
}

func (s *Service) failProvision(ctx context.Context, o orders.Order, scriptErr error) error {
	var exitErr *provision.ExitError

	switch {
	case errors.Is(scriptErr, cmdrun.ErrTimedOut):
		// The budget ran out. The order stays retryable; the machine may
		// still come up, so the admin gets the case either way.
		if _, err := s.orders.RevertProcessing(ctx, o.ID); err != nil {
			return fmt.Errorf("revert order %d after timeout: %w", o.ID, err)
		}
		s.notifyAdmin(ctx, fmt.Sprintf("Order #%d: provisioning script timed out, order returned to pending.", o.ID))

	case errors.As(scriptErr, &exitErr):
		if _, err := s.orders.MarkFailed(ctx, o.ID); err != nil {
			return fmt.Errorf("fail order %d: %w", o.ID, err)
		}
		s.notifyAdmin(ctx, fmt.Sprintf("Order #%d: provisioning failed (exit %d): %s", o.ID, exitErr.Code, exitErr.Stderr))
		s.notifyOwner(ctx, o.AccountID, fmt.Sprintf("Order #%d could not be provisioned. Support has been notified.", o.ID))

	default:
		// Launch or parse error, not a script verdict. Keep the order
		// retryable.
		if _, err := s.orders.RevertProcessing(ctx, o.ID); err != nil {
			return fmt.Errorf("revert order %d: %w", o.ID, err)
		}
		s.notifyAdmin(ctx, fmt.Sprintf("Order #%d: provisioning error: %v", o.ID, scriptErr))
	}

	return fmt.Errorf("provision order %d: %w", o.ID, scriptErr)
}

// Manage runs a management action (restart, reissue, ...) against an active
// order's server.
func (s *Service) Manage(ctx context.Context, orderID int64, action string) (string, error) {
	h := s.locks.Acquire(orderID)
	defer h.Release()

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("load order %d: %w", orderID, err)
	}
	if o.Status != orders.StatusActive {
		return "", fmt.Errorf("%w: order %d is %s", ErrNotLive, orderID, o.Status)
	}

	out, err := s.scripts.Manage(ctx, o.Protocol, action, o.ServerHost, o.ServerLogin, o.ServerPass)
	if err != nil {
		return "", fmt.Errorf("manage order %d (%s): %w", orderID, action, err)
	}

	return out, nil
}

// Terminate tears the server down and retires the order. The state flip
// happens first so a teardown script failure cannot resurrect the order;
// leftover servers are escalated instead.
func (s *Service) Terminate(ctx context.Context, orderID int64) error {
	h := s.locks.Acquire(orderID)
	defer h.Release()

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", orderID, err)
	}
	if !orders.IsLive(o.Status) {
		return fmt.Errorf("%w: order %d is %s", ErrNotLive, orderID, o.Status)
	}

	won, err := s.orders.MarkDeleted(ctx, orderID)
	if err != nil {
		return fmt.Errorf("delete order %d: %w", orderID, err)
	}
	if !won {
		return fmt.Errorf("%w: order %d already retired", ErrNotLive, orderID)
	}

	if o.ServerHost != "" {
		_, err = s.scripts.Manage(ctx, o.Protocol, "teardown", o.ServerHost, o.ServerLogin, o.ServerPass)
		if err != nil {
			s.notifyAdmin(ctx, fmt.Sprintf("Order #%d retired but teardown of %s failed: %v", orderID, o.ServerHost, err))
		}
	}

	s.notifyOwner(ctx, o.AccountID, fmt.Sprintf("Order #%d has been terminated.", orderID))

	return nil
}
