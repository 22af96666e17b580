/*
engine.go - Shared walk state for the payment and daily-returns streams

PURPOSE:
  Both streams walk the same object: a validated schedule merged with
  extraordinary events, a running balance, and a pot of accrued interest.
  The machine owns that state and the node-application rules; payments.go
  and daily.go only decide the step size (per node vs per day) and the
  record shape.

KEY INSIGHT:
  Interest accrues on balance PLUS carried accrued interest. A schedule
  that defers interest (amortizes_interest false) keeps compounding it,
  which is exactly what makes the closed form hold: splitting a period
  with non-paying entries changes nothing.

ORDER OF OPERATIONS AT A NODE:
  1. accrue from the previous node to this date
  2. extraordinary events, each paying accrued interest first, then
     principal
  3. the scheduled slice, rescaled by (1-applied)/(1-regular) so ratios
     stay meaningful after prepayments shrink the balance
  4. interest distribution if the entry amortizes interest
  5. quantize to cents, folding the accumulated rounding residue into the
     terminal amortization so the emitted slices sum exactly to the
     principal

SEE ALSO:
  - payments.go, daily.go: the two step shapes
  - schedule/timeline.go: where the node list comes from
*/
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meridian/fincore/calendar"
	"github.com/meridian/fincore/index"
	"github.com/meridian/fincore/rate"
	"github.com/meridian/fincore/schedule"
)

// Options configures a stream. The zero value is a prefixed 30/360
// operation over the Brazilian calendar with no events, no tax and no
// logging.
type Options struct {
	Regime rate.Regime

	// Backend supplies index observations. Required under CDI252.
	Backend index.Backend

	// PercentOfCDI scales the index (1 = 100%). Zero means 1.
	PercentOfCDI decimal.Decimal

	// Tax, when set, is applied to every interest distribution.
	Tax TaxFunc

	// Events are the extraordinary payments, date-ordered.
	Events []schedule.Event

	// Calendar defaults to calendar.Brazil().
	Calendar *calendar.Calendar

	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

var (
	one     = decimal.New(1, 0)
	centTol = decimal.RequireFromString("0.01")
)

// machine is the walk state shared by both streams.
type machine struct {
	principal decimal.Decimal
	apy       decimal.Decimal
	regime    rate.Regime
	backend   index.Backend
	pct       decimal.Decimal
	tax       TaxFunc
	cal       *calendar.Calendar
	log       *zap.Logger

	start time.Time
	nodes []schedule.Node

	cursor    time.Time       // last processed date
	balance   decimal.Decimal // outstanding principal, full precision
	accrued   decimal.Decimal // undistributed interest, full precision
	applied   decimal.Decimal // principal fraction already amortized
	regular   decimal.Decimal // scheduled ratio already consumed
	sumAmortQ decimal.Decimal // emitted (quantized) amortization total
	closed    bool
}

func newMachine(principal, apy decimal.Decimal, entries []schedule.Amortization, opts Options) (*machine, error) {
	if principal.LessThan(centTol) {
		return nil, fmt.Errorf("%w: principal %s is below one cent", ErrInvalidAmount, principal)
	}
	if apy.IsNegative() {
		return nil, fmt.Errorf("%w: negative annual percent %s", ErrInvalidAmount, apy)
	}

	pct := opts.PercentOfCDI
	if pct.IsZero() {
		pct = one
	}
	if pct.IsNegative() {
		return nil, fmt.Errorf("%w: negative percent of index %s", ErrInvalidAmount, pct)
	}
	if opts.Regime == rate.CDI252 && opts.Backend == nil {
		return nil, fmt.Errorf("%w: regime is %s", ErrBackendRequired, opts.Regime)
	}
	for _, ev := range opts.Events {
		if !ev.IsFull() && !ev.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: %s of %s on %s", ErrInvalidAmount,
				ev.Kind, ev.Amount, ev.Date.Format("2006-01-02"))
		}
	}

	cal := opts.Calendar
	if cal == nil {
		cal = calendar.Brazil()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	validated, err := schedule.Validate(entries, cal, opts.Regime == rate.CDI252)
	if err != nil {
		return nil, err
	}
	nodes, err := schedule.BuildTimeline(validated, opts.Events)
	if err != nil {
		return nil, err
	}

	return &machine{
		principal: principal,
		apy:       apy,
		regime:    opts.Regime,
		backend:   opts.Backend,
		pct:       pct,
		tax:       opts.Tax,
		cal:       cal,
		log:       log,
		start:     validated[0].Date,
		nodes:     nodes,
		cursor:    validated[0].Date,
		balance:   principal,
	}, nil
}

// apyFor resolves the annual percent for the accrual period ending at
// node, honoring a per-entry override.
func (m *machine) apyFor(node schedule.Node) decimal.Decimal {
	if node.Sched != nil && node.Sched.RateOverride != nil {
		return *node.Sched.RateOverride
	}
	return m.apy
}

// accrue computes the interest earned by the position over [from, to)
// under the configured regime. It does not mutate state.
func (m *machine) accrue(from, to time.Time, apy decimal.Decimal) (decimal.Decimal, error) {
	factor, err := m.periodFactor(from, to, apy)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return m.balance.Add(m.accrued).Mul(factor.Sub(one)), nil
}

func (m *machine) periodFactor(from, to time.Time, apy decimal.Decimal) (decimal.Decimal, error) {
	switch m.regime {
	case rate.CDI252:
		factor, days, err := rate.ComposeCDI(m.cal, m.backend, from, to, m.pct)
		if err != nil {
			if errors.Is(err, index.ErrUnknownDate) {
				return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrMissingIndexData, err)
			}
			return decimal.Decimal{}, err
		}
		if !apy.IsZero() {
			spread, err := rate.SpreadFactor252(apy, days)
			if err != nil {
				return decimal.Decimal{}, err
			}
			factor = factor.Mul(spread)
		}
		return factor, nil
	default:
		return rate.Factor30360(apy, from, to)
	}
}

// applyNode runs the event and scheduled-amortization rules for one node.
// It returns the interest distributed and the principal amortized, both
// at full precision, and whether the position closed here.
func (m *machine) applyNode(node schedule.Node) (paid, amort decimal.Decimal, terminal bool, err error) {
	paid, amort = decimal.Zero, decimal.Zero

	for _, ev := range node.Events {
		position := m.balance.Add(m.accrued)
		amount := ev.Amount
		if ev.IsFull() {
			amount = position
		} else if amount.GreaterThan(position.RoundBank(2)) {
			return paid, amort, false, &PrepaymentExceedsBalanceError{
				Date:     node.Date,
				Amount:   amount,
				Position: position.RoundBank(2),
				Excess:   amount.Sub(position.RoundBank(2)),
			}
		}

		// Interest first, principal with the remainder.
		payI := decimal.Min(amount, m.accrued)
		m.accrued = m.accrued.Sub(payI)
		paid = paid.Add(payI)

		payP := decimal.Min(amount.Sub(payI), m.balance)
		m.balance = m.balance.Sub(payP)
		amort = amort.Add(payP)
		m.applied = m.applied.Add(payP.DivRound(m.principal, rate.Precision))
	}

	if node.Sched != nil {
		if !node.Sched.Ratio.IsZero() && m.balance.IsPositive() {
			adj := one
			if rem := one.Sub(m.regular); rem.IsPositive() {
				adj = one.Sub(m.applied).DivRound(rem, rate.Precision)
			}
			slice := decimal.Min(m.principal.Mul(node.Sched.Ratio).Mul(adj), m.balance)
			m.balance = m.balance.Sub(slice)
			amort = amort.Add(slice)
			m.applied = m.applied.Add(slice.DivRound(m.principal, rate.Precision))
		}
		m.regular = m.regular.Add(node.Sched.Ratio)
		if node.Sched.AmortizesInterest {
			paid = paid.Add(m.accrued)
			m.accrued = decimal.Zero
		}
	}

	terminal = node.Terminal || (m.balance.Abs().LessThan(centTol) && m.accrued.IsZero())
	return paid, amort, terminal, nil
}

// closeOut reconciles the terminal node: the exact balance must be within
// a cent of zero, and the emitted amortizations must sum exactly to the
// quantized principal. Returns the terminal quantized amortization.
func (m *machine) closeOut(date time.Time) (decimal.Decimal, error) {
	if m.balance.Abs().GreaterThanOrEqual(centTol) {
		return decimal.Decimal{}, &ReconciliationError{Date: date, Residual: m.balance}
	}
	if !m.balance.IsZero() {
		m.log.Debug("folding terminal residual",
			zap.String("date", date.Format("2006-01-02")),
			zap.String("residual", m.balance.String()))
		m.balance = decimal.Zero
	}
	amortQ := m.principal.RoundBank(2).Sub(m.sumAmortQ)
	m.sumAmortQ = m.principal.RoundBank(2)
	m.closed = true
	return amortQ, nil
}
