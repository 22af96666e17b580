/*
schedule.go - Amortization schedule model and validation

PURPOSE:
  An amortization schedule is the contract's promise: which fraction of
  the principal returns on which date, and whether accrued interest is
  distributed there too. The payment engine trusts a validated schedule
  completely, so every structural rule is enforced here, up front.

KEY INSIGHT:
  Ratios are fractions of the ORIGINAL principal, not of the running
  balance. That keeps a schedule meaningful independently of prepayments;
  the engine rescales ratios when extraordinary events shrink the balance.

VALIDATION RULES:
  - at least two entries (the anchor plus one distribution)
  - dates strictly increasing
  - the first entry anchors accrual: ratio zero, no interest distribution
  - every ratio in [0, 1], ratios summing to 1 within 1e-10; a residue
    below the tolerance is folded into the last entry
  - under CDI every date after the anchor must be a business day, because
    a distribution needs a published index factor for its period

SEE ALSO:
  - timeline.go: merges a schedule with extraordinary events
  - factory.go: builders for the common amortization systems
*/
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/fincore/calendar"
)

// ErrInvalidSchedule means the amortization schedule breaks a structural
// rule and no cash flow can be derived from it.
var ErrInvalidSchedule = errors.New("schedule: invalid amortization schedule")

// RatioTolerance bounds the acceptable distance between the ratio sum and
// one. Residues inside the tolerance are folded into the last entry.
var RatioTolerance = decimal.New(1, -10)

// ValidationError pinpoints the entry that broke a schedule rule.
// Index -1 means the schedule as a whole.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid schedule: %s", e.Reason)
	}
	return fmt.Sprintf("invalid schedule: entry %d: %s", e.Index, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSchedule }

// =============================================================================
// AMORTIZATION - One scheduled distribution
// =============================================================================

// Amortization is one row of the contractual schedule.
type Amortization struct {
	// Date the distribution falls due.
	Date time.Time

	// Ratio is the fraction of the original principal amortized here.
	Ratio decimal.Decimal

	// AmortizesInterest distributes all interest accrued so far. When
	// false the interest stays on the books and keeps compounding.
	AmortizesInterest bool

	// RateOverride, when set, replaces the operation's annual percent for
	// the accrual period that ends at this entry.
	RateOverride *decimal.Decimal
}

// Validate checks the structural rules and returns a normalized copy of
// the schedule: dates at UTC midnight, sub-tolerance ratio residue folded
// into the last entry. requireBusinessDays enforces the publication rule
// for index-linked operations (cal must then be non-nil).
func Validate(entries []Amortization, cal *calendar.Calendar, requireBusinessDays bool) ([]Amortization, error) {
	if len(entries) < 2 {
		return nil, &ValidationError{Index: -1, Reason: fmt.Sprintf("need at least 2 entries, got %d", len(entries))}
	}

	out := make([]Amortization, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].Date = calendar.Normalize(out[i].Date)
	}

	first := out[0]
	if !first.Ratio.IsZero() {
		return nil, &ValidationError{Index: 0, Reason: "first entry must have ratio zero"}
	}
	if first.AmortizesInterest {
		return nil, &ValidationError{Index: 0, Reason: "first entry must not distribute interest"}
	}

	sum := decimal.Zero
	for i, e := range out {
		if i > 0 && !e.Date.After(out[i-1].Date) {
			return nil, &ValidationError{Index: i, Reason: fmt.Sprintf("date %s is not after %s",
				e.Date.Format("2006-01-02"), out[i-1].Date.Format("2006-01-02"))}
		}
		if e.Ratio.IsNegative() || e.Ratio.GreaterThan(decimal.New(1, 0)) {
			return nil, &ValidationError{Index: i, Reason: fmt.Sprintf("ratio %s outside [0, 1]", e.Ratio)}
		}
		if i > 0 && requireBusinessDays && !cal.IsBusinessDay(e.Date) {
			return nil, &ValidationError{Index: i, Reason: fmt.Sprintf("%s is not a business day",
				e.Date.Format("2006-01-02"))}
		}
		sum = sum.Add(e.Ratio)
	}

	residue := decimal.New(1, 0).Sub(sum)
	if residue.Abs().GreaterThan(RatioTolerance) {
		return nil, &ValidationError{Index: -1, Reason: fmt.Sprintf("ratios sum to %s, want 1", sum)}
	}
	if !residue.IsZero() {
		out[len(out)-1].Ratio = out[len(out)-1].Ratio.Add(residue)
	}
	return out, nil
}
