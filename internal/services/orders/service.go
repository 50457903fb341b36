// Package orders runs the order lifecycle: provisioning, management,
// termination, expiration and renewal.
//
// Every mutating operation on one order goes through the per-order lock, so
// concurrent triggers for the same order serialize instead of racing the
// external scripts. State transitions themselves are still conditional
// writes; the lock only protects the script invocations around them.
package orders

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/dchirkin/provcore/internal/config"
	"github.com/dchirkin/provcore/internal/lockreg"
	"github.com/dchirkin/provcore/internal/metrics"
	"github.com/dchirkin/provcore/internal/notify"
	"github.com/dchirkin/provcore/internal/provision"
	"github.com/dchirkin/provcore/internal/repos/accounts"
	pgaccounts "github.com/dchirkin/provcore/internal/repos/accounts/postgres"
	"github.com/dchirkin/provcore/internal/repos/orders"
	pgorders "github.com/dchirkin/provcore/internal/repos/orders/postgres"
)

// Scripts is the seam to the external provisioning executables.
// *provision.Runner satisfies it; tests substitute fakes.
type Scripts interface {
	Provision(ctx context.Context, protocol string, configCount, months int) (provision.Credentials, error)
	Manage(ctx context.Context, protocol, action, host, login, password string) (string, error)
}

type Service struct {
	db       *sql.DB
	orders   orders.Orders
	accounts accounts.Accounts
	locks    *lockreg.Registry
	scripts  Scripts
	notifier notify.Notifier

	adminChat   int64
	renewWindow time.Duration
	opTimeout   time.Duration
}

func New(db *sql.DB, scripts Scripts, notifier notify.Notifier, cfg config.OrdersConfig, adminChat int64, opTimeout time.Duration) *Service {
	repo := pgorders.New(db, opTimeout)

	return &Service{
		db:          db,
		orders:      repo,
		accounts:    pgaccounts.New(db, opTimeout),
		locks:       lockreg.New(repo, cfg.LockThreshold),
		scripts:     scripts,
		notifier:    notifier,
		adminChat:   adminChat,
		renewWindow: cfg.RenewalWindow,
		opTimeout:   opTimeout,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (orders.Order, error) {
	return s.orders.Get(ctx, id)
}

// CleanupLocks is the periodic registry sweep. Entries for orders that left
// the live statuses are dropped once nobody holds or waits on them.
func (s *Service) CleanupLocks(ctx context.Context) error {
	removed, err := s.locks.Cleanup(ctx)
	if err != nil {
		return err
	}

	if removed > 0 {
		slog.Info("lock registry cleaned", "removed", removed, "size", s.locks.Len())
	}
	metrics.LockRegistrySize.Set(float64(s.locks.Len()))

	return nil
}

// notifyOwner and notifyAdmin never fail the operation that triggered them.
func (s *Service) notifyOwner(ctx context.Context, accountID int64, text string) {
	if err := s.notifier.Notify(ctx, accountID, text); err != nil {
		slog.Error("owner notify failed", "account_id", accountID, "error", err)
	}
}

func (s *Service) notifyAdmin(ctx context.Context, text string) {
	if s.adminChat == 0 {
		return
	}
	if err := s.notifier.Notify(ctx, s.adminChat, text); err != nil {
		slog.Error("admin notify failed", "error", err)
	}
}
