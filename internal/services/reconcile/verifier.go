package reconcile

import (
	"context"

	"github.com/dchirkin/provcore/internal/repos/deposits"
)

// VerificationStatus is the payment channel's verdict on a deposit.
type VerificationStatus int

const (
	// VerificationPending: nothing observed yet, check again next pass.
	VerificationPending VerificationStatus = iota
	// VerificationConfirmed: the channel saw the payment. Ref identifies it.
	VerificationConfirmed
	// VerificationInvalid: the channel reports the payment invalid or
	// reversed. The deposit fails and never credits.
	VerificationInvalid
)

type Verification struct {
	Status VerificationStatus
	// Ref is the observed external transaction reference.
	Ref string
	// AmountMinor is the observed amount; zero means the channel did not
	// report one and the declared deposit amount is credited.
	AmountMinor int64
}

// Verifier asks the payment channel about one deposit. Gateway protocol
// details live behind this seam.
type Verifier interface {
	Verify(ctx context.Context, dep deposits.Deposit) (Verification, error)
}
