/*
arrears.go - Late-payment charges

PURPOSE:
  Prices what an overdue payment costs as of a reference date: a one-shot
  late fee plus late interest accruing pro-rata over 30-day months, both
  on the payment's gross amount (principal slice plus distributed
  interest). Purely a helper; arrears never feed back into the schedule
  walk.
*/
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/fincore/calendar"
	"github.com/meridian/fincore/rate"
)

// Arrears is the cost of a missed payment at a reference date.
type Arrears struct {
	// DaysLate is calendar days between the due date and the reference.
	DaysLate int

	// Amount is the gross amount overdue.
	Amount decimal.Decimal

	// LateFee is the one-shot penalty.
	LateFee decimal.Decimal

	// LateInterest is the pro-rata monthly charge.
	LateInterest decimal.Decimal

	// Total is Amount + LateFee + LateInterest.
	Total decimal.Decimal
}

// ComputeArrears prices the missed payment as of ref. lateFeePct is the
// one-shot penalty percent; monthlyPct accrues per 30-day month, pro-rata
// by calendar day.
func ComputeArrears(missed Payment, ref time.Time, lateFeePct, monthlyPct decimal.Decimal) (Arrears, error) {
	if lateFeePct.IsNegative() || monthlyPct.IsNegative() {
		return Arrears{}, fmt.Errorf("%w: negative arrears percent", ErrInvalidAmount)
	}
	days := calendar.DaysBetween(missed.Date, ref)
	if days <= 0 {
		return Arrears{}, fmt.Errorf("%w: reference %s is not after the due date %s", ErrInvalidAmount,
			ref.Format("2006-01-02"), missed.Date.Format("2006-01-02"))
	}

	amount := missed.Amortization.Add(missed.PaidInterest)
	if !amount.IsPositive() {
		return Arrears{}, fmt.Errorf("%w: payment %d carries no cash", ErrInvalidAmount, missed.No)
	}

	hundred := decimal.New(100, 0)
	fee := amount.Mul(lateFeePct).Div(hundred)
	months := decimal.New(int64(days), 0).DivRound(decimal.New(30, 0), rate.Precision)
	li := amount.Mul(monthlyPct).Div(hundred).Mul(months)

	feeQ := fee.RoundBank(2)
	liQ := li.RoundBank(2)
	return Arrears{
		DaysLate:     days,
		Amount:       amount,
		LateFee:      feeQ,
		LateInterest: liQ,
		Total:        amount.Add(feeQ).Add(liQ),
	}, nil
}
