/*
rate.go - Accrual regimes and factor math

PURPOSE:
  Converts annual percentages into multiplicative accrual factors. All
  interest in this module is factor-based: a period earns balance*(f-1),
  and factors compose by multiplication, so splitting a period never
  changes its total interest.

REGIMES:
  Prefixed30360:
    Fixed rate over the 30/360 U.S. day count. The factor for (a, b] is
    (1+apy/100)^(Days30360(a,b)/360). One month is exactly 1/12 of a year
    whatever its calendar length.

  CDI252:
    Post-fixed over the interbank overnight index, ACT/252 business days.
    Each business day contributes (1+(r/100)*p)^(1/252), r the annualized
    index percent for that day, p the percent-of-index multiplier.
    Non-business days contribute nothing.

PRECISION:
  Factors carry at least 28 significant digits. Rounding to cents happens
  at the emission boundary, never here.

SEE ALSO:
  - index/: the source of daily CDI observations
  - engine/: applies these factors to a running balance
*/
package rate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/fincore/calendar"
	"github.com/meridian/fincore/index"
)

// Precision is the number of significant digits carried by intermediate
// factor math.
const Precision = 28

// Regime selects how interest accrues.
type Regime int

const (
	// Prefixed30360 is a fixed annual rate over the 30/360 U.S. day count.
	Prefixed30360 Regime = iota
	// CDI252 is a floating rate over the interbank index, ACT/252.
	CDI252
)

func (r Regime) String() string {
	switch r {
	case Prefixed30360:
		return "prefixed 30/360"
	case CDI252:
		return "CDI 252"
	default:
		return fmt.Sprintf("regime(%d)", int(r))
	}
}

var (
	one        = decimal.New(1, 0)
	hundred    = decimal.New(100, 0)
	days252    = decimal.New(252, 0)
	days360    = decimal.New(360, 0)
	overnight  = one.DivRound(days252, Precision) // 1/252
	monthShare = one.DivRound(decimal.New(12, 0), Precision)
)

// Factor returns (1+annualPct/100)^period at full precision. period is in
// years (1/12 is one month).
func Factor(annualPct, period decimal.Decimal) (decimal.Decimal, error) {
	base := one.Add(annualPct.DivRound(hundred, Precision))
	if !base.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("rate: annual percent %s has no real factor", annualPct)
	}
	f, err := base.PowWithPrecision(period, Precision)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("rate: computing factor: %w", err)
	}
	return f, nil
}

// MonthlyFactor is Factor over exactly one month (1/12 year).
func MonthlyFactor(annualPct decimal.Decimal) (decimal.Decimal, error) {
	return Factor(annualPct, monthShare)
}

// Factor30360 prices a prefixed period (from, to] under 30/360 U.S.
func Factor30360(annualPct decimal.Decimal, from, to time.Time) (decimal.Decimal, error) {
	days := calendar.Days30360(from, to)
	period := decimal.New(int64(days), 0).DivRound(days360, Precision)
	return Factor(annualPct, period)
}

// CDIDailyFactor is one business day's accrual at pctOfCDI times the
// annualized index percent: (1+(r/100)*p)^(1/252).
func CDIDailyFactor(annualPct, pctOfCDI decimal.Decimal) (decimal.Decimal, error) {
	base := one.Add(annualPct.DivRound(hundred, Precision).Mul(pctOfCDI))
	if !base.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("rate: index percent %s has no real daily factor", annualPct)
	}
	f, err := base.PowWithPrecision(overnight, Precision)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("rate: computing daily factor: %w", err)
	}
	return f, nil
}

// SpreadFactor252 prices a fixed spread over n business days:
// (1+annualPct/100)^(n/252). Used when a CDI operation carries a fixed
// component on top of the index.
func SpreadFactor252(annualPct decimal.Decimal, businessDays int) (decimal.Decimal, error) {
	period := decimal.New(int64(businessDays), 0).DivRound(days252, Precision)
	return Factor(annualPct, period)
}

// ComposeCDI multiplies the daily index factors over the business days in
// [from, to). Returns the composed factor and the business-day count.
func ComposeCDI(cal *calendar.Calendar, backend index.Backend, from, to time.Time, pctOfCDI decimal.Decimal) (decimal.Decimal, int, error) {
	factor := one
	count := 0
	from, to = calendar.Normalize(from), calendar.Normalize(to)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		if !cal.IsBusinessDay(d) {
			continue
		}
		obs, err := backend.RateOn(d)
		if err != nil {
			return decimal.Decimal{}, 0, err
		}
		if !obs.BusinessDay {
			// The backend is the authority on publication; a day the
			// calendar accepts but the index skips earns nothing.
			continue
		}
		daily, err := CDIDailyFactor(obs.Rate, pctOfCDI)
		if err != nil {
			return decimal.Decimal{}, 0, err
		}
		factor = factor.Mul(daily).Round(Precision)
		count++
	}
	return factor, count, nil
}
