/*
errors.go - Failure taxonomy of the payment engine

PURPOSE:
  Everything that can go wrong walking a schedule, as sentinels callers
  can test with errors.Is, plus structured types carrying the numbers a
  caller needs to react (how much over was the prepayment, how big was
  the residual).

DESIGN:
  Construction failures (bad schedule, bad amounts, missing backend) are
  returned by the stream constructors. Data failures that only surface
  mid-walk (missing index data, oversized prepayment, reconciliation)
  come out of Stream.Err(); the stream never emits a partial record.
*/
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/fincore/schedule"
)

var (
	// ErrInvalidSchedule re-exports the schedule sentinel so engine
	// callers have a single package to test against.
	ErrInvalidSchedule = schedule.ErrInvalidSchedule

	// ErrInvalidAmount means a monetary input (principal, rate, event
	// amount, arrears percentage) is out of range.
	ErrInvalidAmount = errors.New("fincore: invalid amount")

	// ErrBackendRequired means an index-linked operation was configured
	// without an index backend.
	ErrBackendRequired = errors.New("fincore: index backend required")

	// ErrMissingIndexData means the backend had no rate for a date the
	// walk needed.
	ErrMissingIndexData = errors.New("fincore: missing index data")

	// ErrPrepaymentExceedsBalance means an extraordinary payment was
	// larger than the whole position it was paying off.
	ErrPrepaymentExceedsBalance = errors.New("fincore: prepayment exceeds outstanding position")

	// ErrReconciliation means the terminal balance did not close to zero.
	ErrReconciliation = errors.New("fincore: schedule failed to reconcile")
)

// PrepaymentExceedsBalanceError reports an event that tried to pay more
// than the position (balance plus accrued interest) on its date.
type PrepaymentExceedsBalanceError struct {
	Date     time.Time
	Amount   decimal.Decimal
	Position decimal.Decimal
	Excess   decimal.Decimal
}

func (e *PrepaymentExceedsBalanceError) Error() string {
	return fmt.Sprintf("prepayment of %s on %s exceeds position %s by %s",
		e.Amount, e.Date.Format("2006-01-02"), e.Position, e.Excess)
}

func (e *PrepaymentExceedsBalanceError) Unwrap() error { return ErrPrepaymentExceedsBalance }

// ReconciliationError reports a terminal balance that failed to close.
type ReconciliationError struct {
	Date     time.Time
	Residual decimal.Decimal
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("terminal balance on %s left a residual of %s",
		e.Date.Format("2006-01-02"), e.Residual)
}

func (e *ReconciliationError) Unwrap() error { return ErrReconciliation }

// Convenience predicates, for callers who prefer them over errors.Is.
func IsInvalidSchedule(err error) bool { return errors.Is(err, ErrInvalidSchedule) }
func IsInvalidAmount(err error) bool   { return errors.Is(err, ErrInvalidAmount) }
func IsMissingIndexData(err error) bool {
	return errors.Is(err, ErrMissingIndexData)
}
