/*
calendar.go - Business-day calendar and day-count conventions

PURPOSE:
  Date arithmetic for fixed-income schedules. A Calendar is a holiday set
  plus the weekend rule; everything downstream (index lookups, CDI
  composition, schedule validation, daily walkers) asks this package which
  days count.

KEY INSIGHT:
  Two different clocks coexist in a loan:
  - The 30/360 clock (Days30360) prices prefixed interest. It is a pure
    convention and needs no calendar at all.
  - The business-day clock (BusinessDaysBetween) prices CDI interest. It
    needs the holiday set, because only days with a published index rate
    accrue.

CONVENTIONS:
  - All dates are UTC midnight. Use Date() to build them; inputs are
    normalized before comparison, so callers holding zoned times still get
    calendar-day semantics.
  - Interval functions are half-open [from, to), matching how daily index
    factors compose: the factor for day d covers d -> d+1.

SEE ALSO:
  - brazil.go: the compiled-in Brazilian banking holiday table
  - rate/: turns day counts into accrual factors
*/
package calendar

import "time"

// =============================================================================
// DATES - UTC midnight normalization
// =============================================================================

// Date builds a UTC-midnight date, the canonical form used everywhere in
// this module.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize truncates t to its UTC-midnight calendar day.
func Normalize(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// DaysBetween counts calendar days in [from, to). Negative when to < from.
func DaysBetween(from, to time.Time) int {
	return int(Normalize(to).Sub(Normalize(from)).Hours() / 24)
}

// AddMonths advances n months clamping to the end of the target month
// (Jan 31 + 1 month = Feb 28), the roll used by monthly payment schedules.
func AddMonths(t time.Time, n int) time.Time {
	t = Normalize(t)
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysInMonth(first.Year(), first.Month()); d > last {
		d = last
	}
	return Date(first.Year(), first.Month(), d)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// =============================================================================
// CALENDAR - Holiday set + weekend rule
// =============================================================================

// Calendar answers "does this day count?" for a market. The zero value is
// a weekends-only calendar.
type Calendar struct {
	holidays map[string]struct{}
}

// New builds a calendar from an explicit holiday list. Weekends are always
// non-business regardless of the list.
func New(holidays []time.Time) *Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[Normalize(h).Format("2006-01-02")] = struct{}{}
	}
	return &Calendar{holidays: set}
}

// IsBusinessDay reports whether t is neither a weekend nor a holiday.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	t = Normalize(t)
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	if c == nil || c.holidays == nil {
		return true
	}
	_, holiday := c.holidays[t.Format("2006-01-02")]
	return !holiday
}

// Following rolls t forward to the first business day at or after t.
func (c *Calendar) Following(t time.Time) time.Time {
	t = Normalize(t)
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// NextBusinessDay returns the first business day strictly after t.
func (c *Calendar) NextBusinessDay(t time.Time) time.Time {
	return c.Following(Normalize(t).AddDate(0, 0, 1))
}

// PreviousBusinessDay returns the first business day strictly before t.
func (c *Calendar) PreviousBusinessDay(t time.Time) time.Time {
	t = Normalize(t)
	for {
		t = t.AddDate(0, 0, -1)
		if c.IsBusinessDay(t) {
			return t
		}
	}
}

// AddBusinessDays advances n business days (n may be negative).
func (c *Calendar) AddBusinessDays(t time.Time, n int) time.Time {
	t = Normalize(t)
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if c.IsBusinessDay(t) {
			n -= step
		}
	}
	return t
}

// BusinessDaysBetween counts business days in the half-open interval
// [from, to). Returns 0 when to <= from.
func (c *Calendar) BusinessDaysBetween(from, to time.Time) int {
	from, to = Normalize(from), Normalize(to)
	n := 0
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		if c.IsBusinessDay(d) {
			n++
		}
	}
	return n
}

// =============================================================================
// DAY COUNT - 30/360 U.S. (NASD)
// =============================================================================

// Days30360 counts days from a to b under the 30/360 U.S. convention:
// every month has 30 days, with the NASD end-of-month rules
// (a.day 31 -> 30; b.day 31 -> 30 when a.day >= 30). Negative when b < a.
func Days30360(a, b time.Time) int {
	y1, m1, d1 := Normalize(a).Date()
	y2, m2, d2 := Normalize(b).Date()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 >= 30 {
		d2 = 30
	}
	return (y2-y1)*360 + int(m2-m1)*30 + (d2 - d1)
}
