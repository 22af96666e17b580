package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EXTRAORDINARY EVENTS - Cash arriving outside the contractual schedule
// =============================================================================

// EventKind discriminates extraordinary payments.
type EventKind int

const (
	// Prepayment is a partial payoff: accrued interest first, the rest
	// retires principal. The remaining schedule survives, rescaled.
	Prepayment EventKind = iota

	// EarlySettlement closes the operation: the whole balance plus
	// accrued interest is paid and everything after the date is void.
	EarlySettlement
)

func (k EventKind) String() string {
	switch k {
	case Prepayment:
		return "prepayment"
	case EarlySettlement:
		return "early settlement"
	default:
		return "unknown event"
	}
}

// Event is one extraordinary payment.
//
// Amount is the gross cash delivered. Full marks a total payoff without
// the caller having to compute the exact balance; EarlySettlement is
// always treated as full.
type Event struct {
	Date   time.Time
	Kind   EventKind
	Amount decimal.Decimal
	Full   bool
}

// IsFull reports whether the event pays off the whole position.
func (e Event) IsFull() bool { return e.Full || e.Kind == EarlySettlement }
