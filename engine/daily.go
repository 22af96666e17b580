/*
daily.go - The daily-returns stream

PURPOSE:
  One DailyReturn per calendar day: what the position earned that day and
  what it is worth at the close. This is the mark-to-market view of the
  same walk payments.go does per node; nodes falling on a day apply
  before that day's accrual.

KEY INSIGHT:
  The daily factor telescopes. Under 30/360 day d contributes
  (1+apy/100)^(Days30360(d,d+1)/360); under CDI a business day
  contributes its index factor and other days contribute nothing. Either
  way the product over a period equals the period factor, so the daily
  rows reconcile with the payment rows by construction.

OUTPUT SHAPE:
  Dense: every calendar day from the anchor up to (not including) the
  final distribution date, weekends and holidays included with zero
  interest under CDI. The stream ends when the position closes.
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/fincore/schedule"
)

// DailyReturn is one day's accrual snapshot.
type DailyReturn struct {
	No   int
	Date time.Time

	// Interest earned by the position on this day.
	Interest decimal.Decimal

	// Cumulative interest accrued since the anchor, distributed or not.
	Cumulative decimal.Decimal

	// Balance is the end-of-day position: outstanding principal plus
	// undistributed accrued interest.
	Balance decimal.Decimal

	BusinessDay     bool
	AmortizationDay bool
}

// DailyReturnStream lazily produces the daily table.
type DailyReturnStream struct {
	m    *machine
	day  time.Time
	end  time.Time
	k    int // next node to apply
	no   int
	cum  decimal.Decimal
	cur  DailyReturn
	err  error
	done bool
}

// DailyReturns builds the day-by-day accrual table for principal at apy
// over the given schedule. Same validation and failure split as Payments.
func DailyReturns(principal, apy decimal.Decimal, entries []schedule.Amortization, opts Options) (*DailyReturnStream, error) {
	m, err := newMachine(principal, apy, entries, opts)
	if err != nil {
		return nil, err
	}
	return &DailyReturnStream{
		m:   m,
		day: m.start,
		end: m.nodes[len(m.nodes)-1].Date,
		k:   1, // the anchor node carries no cash
		cum: decimal.Zero,
	}, nil
}

// Next advances one calendar day.
func (s *DailyReturnStream) Next() bool {
	if s.done || s.err != nil || !s.day.Before(s.end) {
		s.done = true
		return false
	}
	m := s.m

	// Apply every node falling on this day before accruing it.
	amortDay := false
	for s.k < len(m.nodes) && m.nodes[s.k].Date.Equal(s.day) {
		if _, _, terminal, err := m.applyNode(m.nodes[s.k]); err != nil {
			s.err = err
			return false
		} else if terminal {
			m.closed = true
		}
		s.k++
		amortDay = true
	}
	if m.closed {
		s.done = true
		return false
	}

	interest, err := s.dayInterest()
	if err != nil {
		s.err = err
		return false
	}
	m.accrued = m.accrued.Add(interest)
	s.cum = s.cum.Add(interest)

	s.no++
	s.cur = DailyReturn{
		No:              s.no,
		Date:            s.day,
		Interest:        interest.RoundBank(2),
		Cumulative:      s.cum.RoundBank(2),
		Balance:         m.balance.Add(m.accrued).RoundBank(2),
		BusinessDay:     m.cal.IsBusinessDay(s.day),
		AmortizationDay: amortDay,
	}
	s.day = s.day.AddDate(0, 0, 1)
	return true
}

// Return returns the record produced by the last successful Next.
func (s *DailyReturnStream) Return() DailyReturn { return s.cur }

// Err returns the first failure encountered by the stream.
func (s *DailyReturnStream) Err() error { return s.err }

// All drains the stream.
func (s *DailyReturnStream) All() ([]DailyReturn, error) {
	var out []DailyReturn
	for s.Next() {
		out = append(out, s.Return())
	}
	return out, s.Err()
}

// dayInterest prices the single day starting at s.day.
func (s *DailyReturnStream) dayInterest() (decimal.Decimal, error) {
	m := s.m
	factor, err := m.periodFactor(s.day, s.day.AddDate(0, 0, 1), s.overrideApy())
	if err != nil {
		return decimal.Decimal{}, err
	}
	return m.balance.Add(m.accrued).Mul(factor.Sub(one)), nil
}

// overrideApy resolves the annual percent governing this day: the
// override of the scheduled entry whose period the day falls in, if any.
func (s *DailyReturnStream) overrideApy() decimal.Decimal {
	for i := s.k; i < len(s.m.nodes); i++ {
		n := s.m.nodes[i]
		if n.Sched == nil {
			continue
		}
		if n.Sched.RateOverride != nil {
			return *n.Sched.RateOverride
		}
		return s.m.apy
	}
	return s.m.apy
}
