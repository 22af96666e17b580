/*
factory.go - Builders for the common amortization systems

PURPOSE:
  Hand-written schedules are for the odd contracts; the common Brazilian
  credit shapes are built here. All builders return the raw entry list so
  the caller decides the validation context (regime, calendar).

SYSTEMS:
  Bullet:       everything at maturity, one shot.
  InterestOnly: monthly interest, principal at maturity (American).
  Constant:     equal principal slices every month (SAC).
  Price:        constant total payment every month (French).
*/
package schedule

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/fincore/calendar"
	"github.com/meridian/fincore/rate"
)

// Bullet returns a single distribution of principal and interest at
// maturity.
func Bullet(zero, maturity time.Time) []Amortization {
	return []Amortization{
		{Date: calendar.Normalize(zero)},
		{Date: calendar.Normalize(maturity), Ratio: decimal.New(1, 0), AmortizesInterest: true},
	}
}

// InterestOnly returns a monthly schedule distributing interest every
// month and the whole principal at the last one.
func InterestOnly(zero time.Time, months int) []Amortization {
	zero = calendar.Normalize(zero)
	out := make([]Amortization, 0, months+1)
	out = append(out, Amortization{Date: zero})
	for i := 1; i <= months; i++ {
		e := Amortization{Date: calendar.AddMonths(zero, i), AmortizesInterest: true}
		if i == months {
			e.Ratio = decimal.New(1, 0)
		}
		out = append(out, e)
	}
	return out
}

// Constant returns a monthly schedule with equal principal slices, the
// SAC system. The last slice absorbs the division residue.
func Constant(zero time.Time, months int) []Amortization {
	zero = calendar.Normalize(zero)
	share := decimal.New(1, 0).DivRound(decimal.New(int64(months), 0), rate.Precision)
	out := make([]Amortization, 0, months+1)
	out = append(out, Amortization{Date: zero})
	sum := decimal.Zero
	for i := 1; i <= months; i++ {
		r := share
		if i == months {
			r = decimal.New(1, 0).Sub(sum)
		}
		sum = sum.Add(r)
		out = append(out, Amortization{Date: calendar.AddMonths(zero, i), Ratio: r, AmortizesInterest: true})
	}
	return out
}

// Price returns the French amortization system: a constant total payment
// every month, so the principal slices grow as the interest share
// shrinks. annualPct zero degenerates to equal slices.
func Price(annualPct decimal.Decimal, zero time.Time, months int) ([]Amortization, error) {
	if months < 1 {
		return nil, &ValidationError{Index: -1, Reason: fmt.Sprintf("need at least 1 month, got %d", months)}
	}
	if annualPct.IsZero() {
		return Constant(zero, months), nil
	}

	fac, err := rate.MonthlyFactor(annualPct)
	if err != nil {
		return nil, err
	}
	one := decimal.New(1, 0)
	monthly := fac.Sub(one)

	// payment per unit of principal: i / (1 - (1+i)^-n)
	inv := one.DivRound(fac.Pow(decimal.New(int64(months), 0)), rate.Precision)
	pmt := monthly.DivRound(one.Sub(inv), rate.Precision)

	zero = calendar.Normalize(zero)
	out := make([]Amortization, 0, months+1)
	out = append(out, Amortization{Date: zero})
	bal := one
	for i := 1; i <= months; i++ {
		r := pmt.Sub(bal.Mul(monthly))
		if i == months {
			r = bal
		}
		bal = bal.Sub(r)
		out = append(out, Amortization{Date: calendar.AddMonths(zero, i), Ratio: r, AmortizesInterest: true})
	}
	return out, nil
}
