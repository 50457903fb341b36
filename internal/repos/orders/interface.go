package orders

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

// Status values are persisted literals. Live statuses mean the resource is
// provisioned or being provisioned; everything else is terminal.
const (
	StatusPending    = "pending"
	StatusActive     = "active"
	StatusProcessing = "processing"
	StatusExpired    = "expired"
	StatusCancelled  = "cancelled"
	StatusFailed     = "failed"
	StatusDeleted    = "deleted"
)

func IsLive(status string) bool {
	return status == StatusActive || status == StatusProcessing
}

type Order struct {
	ID          int64
	AccountID   int64
	Protocol    string
	ConfigCount int
	PriceMinor  int64
	Months      int
	AutoRenew   bool
	Status      string
	ServerHost  string
	ServerLogin string
	ServerPass  string
	ExpiresAt   time.Time // zero until activated
	CreatedAt   time.Time
}

// ExpiredOrder identifies one order flipped by an expiration pass.
type ExpiredOrder struct {
	ID        int64
	AccountID int64
}

// Orders mutates order state. Every transition method is a conditional write
// keyed on the current status; the bool result reports whether this caller
// performed the transition.
type Orders interface {
	// Create inserts a pending order. Runs inside the purchase transaction,
	// after the balance debit.
	Create(tx *sql.Tx, o Order) (Order, error)
	Get(ctx context.Context, id int64) (Order, error)

	// LiveIDs feeds the lock registry cleanup: ids of every order currently
	// in a live status.
	LiveIDs(ctx context.Context) ([]int64, error)

	MarkProcessing(ctx context.Context, id int64) (bool, error)                                          // pending -> processing
	Activate(ctx context.Context, id int64, host, login, pass string, expiresAt time.Time) (bool, error) // processing -> active
	RevertProcessing(ctx context.Context, id int64) (bool, error)                                        // processing -> pending, keeps the order retryable
	MarkFailed(ctx context.Context, id int64) (bool, error)                                              // processing -> failed
	MarkDeleted(ctx context.Context, id int64) (bool, error)                                             // live -> deleted

	// ExpireDue flips every live order whose expiry has passed and returns
	// the flipped rows so owners can be notified.
	ExpireDue(ctx context.Context, now time.Time) ([]ExpiredOrder, error)

	// ListExpiringWithin returns live orders whose expiry falls inside the
	// window, for renewal reminders and auto-renewal.
	ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]Order, error)

	// ExtendExpiry pushes the expiry forward by the order's billing period.
	// Runs inside the renewal transaction, after the balance debit.
	ExtendExpiry(tx *sql.Tx, id int64, months int) error
}
