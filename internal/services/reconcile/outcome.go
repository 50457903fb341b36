package reconcile

// Outcome reports what one reconciliation attempt did.
type Outcome int

const (
	// OutcomeAlreadyDone means a concurrent pass finished the transition
	// first. Not an error: the money is accounted for exactly once.
	OutcomeAlreadyDone Outcome = iota
	// OutcomeConfirmed means this caller won the conditional write and
	// applied the balance credit.
	OutcomeConfirmed
	// OutcomeFailed means this caller flipped the deposit to failed. No
	// credit was or ever will be applied for it.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyDone:
		return "already_done"
	case OutcomeConfirmed:
		return "newly_confirmed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}
