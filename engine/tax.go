/*
tax.go - Withholding policies

PURPOSE:
  Tax is a policy injected into the walk, not a property of the math:
  the engine hands a TaxFunc the interest being distributed and the
  holding window, and subtracts whatever comes back. A nil TaxFunc means
  no withholding. Tax never touches amortization.

POLICIES:
  RegressiveTax is the Brazilian fixed-income income-tax table: the
  longer the money stayed invested, the smaller the cut. IOF is the
  transaction-tax percent for redemptions, flat above one year.
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/fincore/calendar"
)

// TaxFunc computes the withholding on an interest distribution. start is
// the operation's anchor date, payDate the distribution date.
type TaxFunc func(interest decimal.Decimal, start, payDate time.Time) decimal.Decimal

// FlatTax withholds a fixed percent of every interest distribution.
func FlatTax(pct decimal.Decimal) TaxFunc {
	rate := pct.Div(decimal.New(100, 0))
	return func(interest decimal.Decimal, _, _ time.Time) decimal.Decimal {
		return interest.Mul(rate)
	}
}

// revenueTaxBrackets is the regressive income-tax table for fixed income:
// holding period in calendar days, percent withheld.
var revenueTaxBrackets = []struct {
	maxDays int // 0 means no upper bound
	pct     string
}{
	{180, "22.5"},
	{360, "20"},
	{720, "17.5"},
	{0, "15"},
}

// RegressiveTax withholds by the regressive income-tax table, bracketed
// on the calendar days between the anchor and the distribution.
func RegressiveTax() TaxFunc {
	return func(interest decimal.Decimal, start, payDate time.Time) decimal.Decimal {
		days := calendar.DaysBetween(start, payDate)
		for _, b := range revenueTaxBrackets {
			if b.maxDays == 0 || days <= b.maxDays {
				pct := decimal.RequireFromString(b.pct)
				return interest.Mul(pct).Div(decimal.New(100, 0))
			}
		}
		return decimal.Zero
	}
}

// IOF returns the transaction-tax percent for a redemption at end of an
// operation anchored at start: 0.38% plus 0.00411% per calendar day under
// one year, a flat 1.88% at or beyond.
func IOF(start, end time.Time) decimal.Decimal {
	days := calendar.DaysBetween(start, end)
	if days >= 365 {
		return decimal.RequireFromString("1.88")
	}
	perDay := decimal.RequireFromString("0.00411")
	return decimal.RequireFromString("0.38").Add(perDay.Mul(decimal.New(int64(days), 0)))
}
