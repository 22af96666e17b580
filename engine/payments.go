/*
payments.go - The payment stream

PURPOSE:
  One Payment per timeline node past the anchor: how much interest
  accrued this period, how much was distributed, which slice of principal
  came back, the withholding, and the balance left. Pull-driven, so a
  caller can stop after the rows it needs.

INVARIANTS:
  - emitted amortizations sum exactly to the quantized principal
  - Balance on every record equals principal minus the amortizations
    emitted so far, exactly, at two decimals
  - the terminal record carries Balance 0.00 or the stream fails with
    ReconciliationError
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/fincore/schedule"
)

// Payment is one row of the cash-flow table.
type Payment struct {
	No   int
	Date time.Time

	// RawInterest is the interest accrued in the period ending here,
	// whether or not it was distributed.
	RawInterest decimal.Decimal

	// PaidInterest is the interest actually distributed here.
	PaidInterest decimal.Decimal

	// Amortization is the principal returned here.
	Amortization decimal.Decimal

	// Tax is the withholding on PaidInterest.
	Tax decimal.Decimal

	// Net is Amortization + PaidInterest - Tax.
	Net decimal.Decimal

	// Balance is the outstanding principal after this payment.
	Balance decimal.Decimal
}

// PaymentStream lazily produces the payment table. Use it like a
// bufio.Scanner: Next, Payment, then Err once Next returns false.
type PaymentStream struct {
	m    *machine
	idx  int
	next int // payment number
	cur  Payment
	err  error
	done bool
}

// Payments builds the cash-flow table for principal at apy over the given
// schedule. Structural problems (bad schedule, bad amounts, missing
// backend) fail here; data problems surface through the stream's Err.
func Payments(principal, apy decimal.Decimal, entries []schedule.Amortization, opts Options) (*PaymentStream, error) {
	m, err := newMachine(principal, apy, entries, opts)
	if err != nil {
		return nil, err
	}
	return &PaymentStream{m: m, idx: 1, next: 1}, nil
}

// Next advances to the following payment. It returns false at the end of
// the schedule or on error; check Err to tell the two apart.
func (s *PaymentStream) Next() bool {
	if s.done || s.err != nil || s.idx >= len(s.m.nodes) {
		s.done = true
		return false
	}

	node := s.m.nodes[s.idx]
	p, err := s.step(node)
	if err != nil {
		s.err = err
		return false
	}

	s.cur = p
	s.idx++
	s.next++
	if s.m.closed {
		s.done = true // position settled; any residual nodes are void
	}
	return true
}

// Payment returns the record produced by the last successful Next.
func (s *PaymentStream) Payment() Payment { return s.cur }

// Err returns the first failure encountered by the stream.
func (s *PaymentStream) Err() error { return s.err }

// All drains the stream. Convenience for callers who want the whole
// table at once.
func (s *PaymentStream) All() ([]Payment, error) {
	var out []Payment
	for s.Next() {
		out = append(out, s.Payment())
	}
	return out, s.Err()
}

func (s *PaymentStream) step(node schedule.Node) (Payment, error) {
	m := s.m

	interest, err := m.accrue(m.cursor, node.Date, m.apyFor(node))
	if err != nil {
		return Payment{}, err
	}
	m.accrued = m.accrued.Add(interest)

	paid, _, terminal, err := m.applyNode(node)
	if err != nil {
		return Payment{}, err
	}

	var amortQ decimal.Decimal
	if terminal {
		amortQ, err = m.closeOut(node.Date)
		if err != nil {
			return Payment{}, err
		}
	} else {
		// Non-terminal rows quantize against the running emitted total so
		// balances telescope exactly.
		amortQ = m.principal.Sub(m.balance).RoundBank(2).Sub(m.sumAmortQ)
		m.sumAmortQ = m.sumAmortQ.Add(amortQ)
	}

	paidQ := paid.RoundBank(2)
	taxQ := decimal.Zero
	if m.tax != nil && paid.IsPositive() {
		taxQ = m.tax(paid, m.start, node.Date).RoundBank(2)
	}

	m.cursor = node.Date
	return Payment{
		No:           s.next,
		Date:         node.Date,
		RawInterest:  interest.RoundBank(2),
		PaidInterest: paidQ,
		Amortization: amortQ,
		Tax:          taxQ,
		Net:          amortQ.Add(paidQ).Sub(taxQ),
		Balance:      m.principal.RoundBank(2).Sub(m.sumAmortQ),
	}, nil
}
