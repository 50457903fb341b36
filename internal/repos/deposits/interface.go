package deposits

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrDepositNotFound = errors.New("deposit not found")

// Status values are persisted literals. A deposit is created pending and
// moves exactly once, to confirmed or failed. Records are never deleted.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Channel is the payment rail a deposit arrives on.
type Channel string

const (
	ChannelOnChain Channel = "onchain"
	ChannelGateway Channel = "gateway"
)

type Deposit struct {
	ID          int64
	AccountID   int64
	AmountMinor int64
	Channel     Channel
	ExtRef      string // external transaction reference, empty until observed
	Status      string
	CreatedAt   time.Time
	ConfirmedAt time.Time // zero unless confirmed
}

type Deposits interface {
	Create(ctx context.Context, accountID int64, amountMinor int64, channel Channel) (Deposit, error)
	Get(ctx context.Context, id int64) (Deposit, error)
	ListPending(ctx context.Context) ([]Deposit, error)

	// Confirm flips pending -> confirmed and records the external reference.
	// The write is conditional on the stored status still being pending; the
	// affected row count is the sole arbiter of the race. won=false means a
	// concurrent pass already finished the transition and the caller must not
	// credit.
	Confirm(tx *sql.Tx, id int64, extRef string) (accountID int64, won bool, err error)

	// MarkFailed flips pending -> failed under the same conditional-write
	// semantics. Never credits.
	MarkFailed(ctx context.Context, id int64) (won bool, err error)
}
