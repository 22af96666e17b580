/*
memory.go - Compiled-in CDI registry and synthetic backends

PURPOSE:
  Historical CDI observations shipped as data, so the library stays pure:
  no network, no files, no database. The registry stores the overnight
  percent exactly as published, as date ranges (the committee moves the
  target rate a handful of times a year, so runs of identical days
  compress well).

PROJECTION:
  Dates past the registry end resolve to the last published rate. That is
  a simulation convenience, logged at Debug so a backtest can tell
  observation from projection. Dates before the registry start are a hard
  ErrUnknownDate.

SEE ALSO:
  - calendar/brazil.go: the matching non-publication dates
*/
package index

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meridian/fincore/calendar"
)

// =============================================================================
// REGISTRY - Published overnight CDI percent per date range (inclusive)
// =============================================================================

var cdiRegistry = []struct {
	from, to string
	daily    string // overnight percent as published
}{
	{"2017-12-29", "2018-02-07", "0.026444"},
	{"2018-02-08", "2018-03-21", "0.025515"},
	{"2018-03-22", "2018-09-28", "0.024583"},
	{"2018-10-01", "2019-07-31", "0.024620"},
	{"2019-08-01", "2019-09-18", "0.022751"},
	{"2019-09-19", "2019-10-30", "0.020872"},
	{"2019-10-31", "2019-12-11", "0.018985"},
	{"2019-12-12", "2020-02-05", "0.017089"},
	{"2020-02-06", "2020-03-18", "0.016137"},
	{"2020-03-19", "2020-05-06", "0.014227"},
	{"2020-05-07", "2020-06-17", "0.011345"},
	{"2020-06-18", "2020-08-05", "0.008442"},
	{"2020-08-06", "2021-03-17", "0.007469"},
	{"2021-03-18", "2021-05-05", "0.010379"},
	{"2021-05-06", "2021-06-16", "0.013269"},
	{"2021-06-17", "2021-08-04", "0.016137"},
	{"2021-08-05", "2021-09-22", "0.019930"},
	{"2021-09-23", "2021-10-27", "0.023687"},
	{"2021-10-28", "2021-12-08", "0.029256"},
	{"2021-12-09", "2022-02-02", "0.034749"},
	{"2022-02-03", "2022-03-16", "0.040168"},
	{"2022-03-17", "2022-05-04", "0.043739"},
	{"2022-05-05", "2022-06-15", "0.047279"},
	{"2022-06-17", "2022-08-03", "0.049037"},
	{"2022-08-04", "2022-11-14", "0.050788"},
}

type registrySpan struct {
	from, to time.Time
	annual   decimal.Decimal
}

var cdiSpans []registrySpan

func init() {
	cdiSpans = make([]registrySpan, 0, len(cdiRegistry))
	for _, row := range cdiRegistry {
		from, _ := time.Parse("2006-01-02", row.from)
		to, _ := time.Parse("2006-01-02", row.to)
		cdiSpans = append(cdiSpans, registrySpan{
			from:   from,
			to:     to,
			annual: annualize(decimal.RequireFromString(row.daily)),
		})
	}
}

// annualize converts an overnight percent to the annualized percent the
// Backend contract speaks: ((1+d/100)^252 - 1) * 100.
func annualize(daily decimal.Decimal) decimal.Decimal {
	one := decimal.New(1, 0)
	hundred := decimal.New(100, 0)
	factor := one.Add(daily.DivRound(hundred, 28)).Pow(decimal.New(252, 0))
	return factor.Sub(one).Mul(hundred)
}

// =============================================================================
// IN-MEMORY BACKEND
// =============================================================================

// InMemory serves the compiled-in CDI registry over the Brazilian banking
// calendar.
type InMemory struct {
	Calendar *calendar.Calendar // nil means calendar.Brazil()
	Logger   *zap.Logger        // nil means no logging
}

// NewInMemory builds a registry-backed CDI source.
func NewInMemory() *InMemory { return &InMemory{} }

func (m *InMemory) RateOn(date time.Time) (DailyRate, error) {
	d := calendar.Normalize(date)

	cal := m.Calendar
	if cal == nil {
		cal = calendar.Brazil()
	}
	if !cal.IsBusinessDay(d) {
		return DailyRate{Date: d}, nil
	}

	if d.Before(cdiSpans[0].from) {
		return DailyRate{}, fmt.Errorf("%w: %s", ErrUnknownDate, d.Format("2006-01-02"))
	}

	// Ranges are sorted; the last span whose start is at or before d wins,
	// which also covers the single-day gaps between consecutive ranges.
	last := cdiSpans[0]
	for _, s := range cdiSpans {
		if s.from.After(d) {
			break
		}
		last = s
	}
	if d.After(last.to) && m.Logger != nil {
		m.Logger.Debug("projecting index rate past registry end",
			zap.String("date", d.Format("2006-01-02")),
			zap.String("rate", last.annual.StringFixed(4)))
	}
	return DailyRate{Date: d, Rate: last.annual, BusinessDay: true}, nil
}

// =============================================================================
// CONSTANT BACKEND - Synthetic source for simulations and tests
// =============================================================================

// Constant reports the same annualized percent on every business day.
type Constant struct {
	Rate     decimal.Decimal // annualized percent
	Calendar *calendar.Calendar
}

// NewConstant builds a flat-rate backend over cal (nil means Brazil).
func NewConstant(rate decimal.Decimal, cal *calendar.Calendar) *Constant {
	return &Constant{Rate: rate, Calendar: cal}
}

func (c *Constant) RateOn(date time.Time) (DailyRate, error) {
	d := calendar.Normalize(date)
	cal := c.Calendar
	if cal == nil {
		cal = calendar.Brazil()
	}
	if !cal.IsBusinessDay(d) {
		return DailyRate{Date: d}, nil
	}
	return DailyRate{Date: d, Rate: c.Rate, BusinessDay: true}, nil
}
