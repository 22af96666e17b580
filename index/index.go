/*
index.go - Interbank index backend contract

PURPOSE:
  A Backend answers one question: what was the index rate on this date?
  The payment and daily-returns engines compose these daily answers into
  period factors; they never care where the numbers come from.

KEY INSIGHT:
  The contract speaks ANNUALIZED percent (13.65 means 13.65% per 252
  business days). Publication sources quote an overnight percent; adapters
  convert on lookup so every consumer sees one unit.

SEE ALSO:
  - memory.go: compiled-in historical registry + constant backend
  - rate/: turns DailyRate values into accrual factors
*/
package index

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnknownDate means the backend has no observation for the requested
// date and no defensible projection for it either.
var ErrUnknownDate = errors.New("index: no rate recorded for date")

// DailyRate is one day's index observation.
//
// On non-business days there is no publication: BusinessDay is false and
// Rate is zero. Such days never contribute accrual.
type DailyRate struct {
	Date        time.Time
	Rate        decimal.Decimal // annualized percent, e.g. 13.65
	BusinessDay bool
}

// Backend resolves the index rate for a single date.
type Backend interface {
	RateOn(date time.Time) (DailyRate, error)
}
