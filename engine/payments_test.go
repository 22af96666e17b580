package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/fincore/calendar"
	"github.com/meridian/fincore/index"
	"github.com/meridian/fincore/rate"
	"github.com/meridian/fincore/schedule"
)

func date(y int, m time.Month, d int) time.Time { return calendar.Date(y, m, d) }
func dec(s string) decimal.Decimal              { return decimal.RequireFromString(s) }

// money asserts a decimal equals the expected cent value exactly.
func money(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func bulletWithGrace() []schedule.Amortization {
	return []schedule.Amortization{
		{Date: date(2022, time.March, 9)},
		{Date: date(2022, time.April, 9)},
		{Date: date(2022, time.May, 9), Ratio: dec("1"), AmortizesInterest: true},
	}
}

func eightyTwenty() []schedule.Amortization {
	return []schedule.Amortization{
		{Date: date(2022, time.March, 9)},
		{Date: date(2022, time.April, 9), Ratio: dec("0.8"), AmortizesInterest: true},
		{Date: date(2022, time.May, 9), Ratio: dec("0.2"), AmortizesInterest: true},
	}
}

// =============================================================================
// PREFIXED SCENARIOS
// =============================================================================

func TestBulletWithGraceEntry(t *testing.T) {
	// GIVEN 100000 at 5% a year with an intermediate entry that neither
	// amortizes nor distributes interest
	stream, err := Payments(dec("100000"), dec("5"), bulletWithGrace(), Options{})
	require.NoError(t, err)

	ps, err := stream.All()
	require.NoError(t, err)
	require.Len(t, ps, 2)

	// THEN the grace entry reports its period accrual and moves no cash
	money(t, "407.41", ps[0].RawInterest)
	money(t, "0", ps[0].PaidInterest)
	money(t, "0", ps[0].Amortization)
	money(t, "100000", ps[0].Balance)

	// AND the deferred interest compounds: the final distribution equals
	// the one-shot closed form, with raw showing only the second period
	money(t, "409.07", ps[1].RawInterest)
	money(t, "816.48", ps[1].PaidInterest)
	money(t, "100000", ps[1].Amortization)
	money(t, "0", ps[1].Balance)
	money(t, "100816.48", ps[1].Net)
}

func TestPureBulletMatchesClosedForm(t *testing.T) {
	// The two-month bullet is worth P*((1+r/100)^(2/12)-1)
	entries := schedule.Bullet(date(2022, time.March, 9), date(2022, time.May, 9))
	stream, err := Payments(dec("100000"), dec("5"), entries, Options{})
	require.NoError(t, err)

	ps, err := stream.All()
	require.NoError(t, err)
	require.Len(t, ps, 1)

	money(t, "816.48", ps[0].RawInterest)
	money(t, "816.48", ps[0].PaidInterest)
	money(t, "100000", ps[0].Amortization)
	money(t, "0", ps[0].Balance)
}

func TestEightyTwentySplit(t *testing.T) {
	stream, err := Payments(dec("100000"), dec("5"), eightyTwenty(), Options{})
	require.NoError(t, err)

	ps, err := stream.All()
	require.NoError(t, err)
	require.Len(t, ps, 2)

	// First month: interest on the full principal, 80% comes back
	money(t, "407.41", ps[0].PaidInterest)
	money(t, "80000", ps[0].Amortization)
	money(t, "20000", ps[0].Balance)

	// Second month: interest only on the remaining 20000
	money(t, "81.48", ps[1].PaidInterest)
	money(t, "20000", ps[1].Amortization)
	money(t, "0", ps[1].Balance)
}

func TestGraceEntriesDoNotChangeTotalInterest(t *testing.T) {
	// GIVEN the same bullet with and without interleaved non-paying,
	// non-amortizing entries
	plain := schedule.Bullet(date(2022, time.March, 9), date(2022, time.September, 9))
	split := []schedule.Amortization{
		{Date: date(2022, time.March, 9)},
		{Date: date(2022, time.April, 9)},
		{Date: date(2022, time.June, 9)},
		{Date: date(2022, time.July, 21)},
		{Date: date(2022, time.September, 9), Ratio: dec("1"), AmortizesInterest: true},
	}

	total := func(entries []schedule.Amortization) decimal.Decimal {
		stream, err := Payments(dec("100000"), dec("5"), entries, Options{})
		require.NoError(t, err)
		ps, err := stream.All()
		require.NoError(t, err)
		sum := decimal.Zero
		for _, p := range ps {
			sum = sum.Add(p.PaidInterest)
		}
		return sum
	}

	// THEN total distributed interest is identical to the cent
	assert.True(t, total(plain).Equal(total(split)),
		"splitting periods must not change total interest")
}

func TestRawInterestConsistentAcrossOrderings(t *testing.T) {
	// Whatever order the slices come in, each period's raw interest must
	// equal the closed-form factor applied to the prior balance.
	dates := []time.Time{
		date(2022, time.March, 9),
		date(2022, time.April, 9),
		date(2022, time.May, 9),
		date(2022, time.June, 9),
	}
	orderings := [][]string{
		{"0.5", "0.3", "0.2"},
		{"0.2", "0.3", "0.5"},
		{"0.3", "0.5", "0.2"},
	}

	for _, ratios := range orderings {
		entries := []schedule.Amortization{{Date: dates[0]}}
		for i, r := range ratios {
			entries = append(entries, schedule.Amortization{
				Date: dates[i+1], Ratio: dec(r), AmortizesInterest: true,
			})
		}

		stream, err := Payments(dec("100000"), dec("5"), entries, Options{})
		require.NoError(t, err)
		ps, err := stream.All()
		require.NoError(t, err)
		require.Len(t, ps, 3)

		prior := dec("100000")
		for i, p := range ps {
			f, err := rate.Factor30360(dec("5"), dates[i], dates[i+1])
			require.NoError(t, err)
			want := prior.Mul(f.Sub(decimal.New(1, 0))).RoundBank(2)
			assert.True(t, p.RawInterest.Equal(want),
				"ordering %v payment %d: want %s, got %s", ratios, i+1, want, p.RawInterest)
			prior = p.Balance
		}
	}
}

func TestAmortizationsSumToPrincipalExactly(t *testing.T) {
	// GIVEN an awkward principal over systems that produce repeating
	// decimals in their slices
	principal := dec("99999.99")
	price, err := schedule.Price(dec("12"), date(2022, time.January, 1), 12)
	require.NoError(t, err)
	sac := schedule.Constant(date(2022, time.January, 1), 7)

	for name, entries := range map[string][]schedule.Amortization{"price": price, "sac": sac} {
		stream, err := Payments(principal, dec("12"), entries, Options{})
		require.NoError(t, err)
		ps, err := stream.All()
		require.NoError(t, err)

		sum := decimal.Zero
		prevBal := principal
		for _, p := range ps {
			sum = sum.Add(p.Amortization)
			// balances telescope and never grow
			assert.True(t, p.Balance.Equal(prevBal.RoundBank(2).Sub(p.Amortization)), name)
			assert.True(t, p.Balance.LessThanOrEqual(prevBal), name)
			prevBal = p.Balance
		}
		assert.True(t, sum.Equal(principal), "%s: amortizations sum to %s", name, sum)
		assert.True(t, ps[len(ps)-1].Balance.IsZero(), name)
	}
}

func TestRateOverrideGovernsItsPeriod(t *testing.T) {
	// GIVEN a first period repriced at 10% while the loan runs at 5%
	ten := dec("10")
	entries := []schedule.Amortization{
		{Date: date(2022, time.March, 9)},
		{Date: date(2022, time.April, 9), RateOverride: &ten},
		{Date: date(2022, time.May, 9), Ratio: dec("1"), AmortizesInterest: true},
	}

	stream, err := Payments(dec("100000"), dec("5"), entries, Options{})
	require.NoError(t, err)
	ps, err := stream.All()
	require.NoError(t, err)
	require.Len(t, ps, 2)

	f10, err := rate.Factor30360(ten, date(2022, time.March, 9), date(2022, time.April, 9))
	require.NoError(t, err)
	want := dec("100000").Mul(f10.Sub(decimal.New(1, 0))).RoundBank(2)
	assert.True(t, ps[0].RawInterest.Equal(want), "want %s, got %s", want, ps[0].RawInterest)

	// The second period reverts to the contractual 5%
	assert.True(t, ps[1].RawInterest.GreaterThan(dec("400")))
	assert.True(t, ps[1].RawInterest.LessThan(dec("450")))
}

// =============================================================================
// CDI SCENARIOS
// =============================================================================

func TestCDIConstantRate(t *testing.T) {
	// GIVEN a bullet spanning 21 business days at a constant 13.65%
	cal := calendar.Brazil()
	entries := schedule.Bullet(date(2022, time.March, 9), date(2022, time.April, 7))
	stream, err := Payments(dec("100000"), decimal.Zero, entries, Options{
		Regime:  rate.CDI252,
		Backend: index.NewConstant(dec("13.65"), cal),
	})
	require.NoError(t, err)

	ps, err := stream.All()
	require.NoError(t, err)
	require.Len(t, ps, 1)

	// THEN the period factor is the product of 21 daily factors
	money(t, "1071.98", ps[0].RawInterest)
	money(t, "1071.98", ps[0].PaidInterest)
	money(t, "100000", ps[0].Amortization)
	money(t, "0", ps[0].Balance)
}

func TestCDISpreadOverIndex(t *testing.T) {
	// A fixed spread on top of the index strictly increases the return
	cal := calendar.Brazil()
	entries := schedule.Bullet(date(2022, time.March, 9), date(2022, time.April, 7))
	backend := index.NewConstant(dec("13.65"), cal)

	flat, err := Payments(dec("100000"), decimal.Zero, entries, Options{Regime: rate.CDI252, Backend: backend})
	require.NoError(t, err)
	spread, err := Payments(dec("100000"), dec("2"), entries, Options{Regime: rate.CDI252, Backend: backend})
	require.NoError(t, err)

	fps, err := flat.All()
	require.NoError(t, err)
	sps, err := spread.All()
	require.NoError(t, err)
	assert.True(t, sps[0].PaidInterest.GreaterThan(fps[0].PaidInterest))
}

func TestCDIPercentOfIndex(t *testing.T) {
	cal := calendar.Brazil()
	entries := schedule.Bullet(date(2022, time.March, 9), date(2022, time.April, 7))
	backend := index.NewConstant(dec("13.65"), cal)

	stream, err := Payments(dec("100000"), decimal.Zero, entries, Options{
		Regime:       rate.CDI252,
		Backend:      backend,
		PercentOfCDI: dec("0.5"),
	})
	require.NoError(t, err)
	ps, err := stream.All()
	require.NoError(t, err)

	// Half the index earns a bit more than half the interest (convexity
	// of the daily root), but far less than the full index
	assert.True(t, ps[0].PaidInterest.GreaterThan(dec("500")))
	assert.True(t, ps[0].PaidInterest.LessThan(dec("600")))
}

func TestCDIMissingIndexData(t *testing.T) {
	// GIVEN a schedule predating the registry
	entries := schedule.Bullet(date(2017, time.June, 1), date(2017, time.July, 3))
	stream, err := Payments(dec("100000"), decimal.Zero, entries, Options{
		Regime:  rate.CDI252,
		Backend: index.NewInMemory(),
	})
	require.NoError(t, err)

	// THEN the failure surfaces on the pull, not the build
	assert.False(t, stream.Next())
	assert.ErrorIs(t, stream.Err(), ErrMissingIndexData)
}

func TestCDIRequiresBackend(t *testing.T) {
	entries := schedule.Bullet(date(2022, time.March, 9), date(2022, time.April, 7))
	_, err := Payments(dec("100000"), decimal.Zero, entries, Options{Regime: rate.CDI252})
	assert.ErrorIs(t, err, ErrBackendRequired)
}

func TestCDIRejectsWeekendSchedule(t *testing.T) {
	// 2022-04-09 is a Saturday: fine prefixed, invalid under the index
	entries := schedule.Bullet(date(2022, time.March, 9), date(2022, time.April, 9))
	cal := calendar.Brazil()

	_, err := Payments(dec("100000"), dec("5"), entries, Options{})
	assert.NoError(t, err)

	_, err = Payments(dec("100000"), decimal.Zero, entries, Options{
		Regime:  rate.CDI252,
		Backend: index.NewConstant(dec("13.65"), cal),
	})
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

// =============================================================================
// EXTRAORDINARY EVENTS
// =============================================================================

func TestPartialPrepaymentRescalesSchedule(t *testing.T) {
	// GIVEN a 50/50 schedule with 30000 arriving mid-first-period
	entries := []schedule.Amortization{
		{Date: date(2022, time.March, 9)},
		{Date: date(2022, time.April, 9), Ratio: dec("0.5"), AmortizesInterest: true},
		{Date: date(2022, time.May, 9), Ratio: dec("0.5"), AmortizesInterest: true},
	}
	stream, err := Payments(dec("100000"), dec("5"), entries, Options{
		Events: []schedule.Event{
			{Date: date(2022, time.March, 25), Kind: schedule.Prepayment, Amount: dec("30000")},
		},
	})
	require.NoError(t, err)

	ps, err := stream.All()
	require.NoError(t, err)
	require.Len(t, ps, 3)

	// Event row: 16 days of interest paid first, the rest off principal
	money(t, "217.08", ps[0].RawInterest)
	money(t, "217.08", ps[0].PaidInterest)
	money(t, "29782.92", ps[0].Amortization)
	money(t, "70217.08", ps[0].Balance)

	// Scheduled slices rescale so the two halves stay equal and close out
	money(t, "35108.54", ps[1].Amortization)
	money(t, "35108.54", ps[1].Balance)
	money(t, "35108.54", ps[2].Amortization)
	money(t, "0", ps[2].Balance)

	sum := ps[0].Amortization.Add(ps[1].Amortization).Add(ps[2].Amortization)
	assert.True(t, sum.Equal(dec("100000")))
}

func TestFullPrepaymentTerminatesStream(t *testing.T) {
	// GIVEN a total payoff three months into a one-year bullet
	entries := schedule.Bullet(date(2022, time.March, 9), date(2023, time.March, 9))
	stream, err := Payments(dec("1000"), dec("5"), entries, Options{
		Events: []schedule.Event{
			{Date: date(2022, time.June, 9), Kind: schedule.Prepayment, Full: true},
		},
	})
	require.NoError(t, err)

	ps, err := stream.All()
	require.NoError(t, err)

	// THEN one terminal record at the event date and nothing after
	require.Len(t, ps, 1)
	assert.Equal(t, date(2022, time.June, 9), ps[0].Date)
	money(t, "12.27", ps[0].PaidInterest)
	money(t, "1000", ps[0].Amortization)
	money(t, "0", ps[0].Balance)
}

func TestEarlySettlementTruncates(t *testing.T) {
	stream, err := Payments(dec("100000"), dec("5"), eightyTwenty(), Options{
		Events: []schedule.Event{
			{Date: date(2022, time.March, 25), Kind: schedule.EarlySettlement},
		},
	})
	require.NoError(t, err)

	ps, err := stream.All()
	require.NoError(t, err)

	require.Len(t, ps, 1)
	assert.Equal(t, date(2022, time.March, 25), ps[0].Date)
	money(t, "100000", ps[0].Amortization)
	money(t, "0", ps[0].Balance)
}

func TestPrepaymentExceedingPositionFails(t *testing.T) {
	// GIVEN a 1500 prepayment against a 1000 position (zero rate keeps
	// the arithmetic exact)
	entries := schedule.Bullet(date(2022, time.March, 9), date(2023, time.March, 9))
	stream, err := Payments(dec("1000"), decimal.Zero, entries, Options{
		Events: []schedule.Event{
			{Date: date(2022, time.June, 9), Kind: schedule.Prepayment, Amount: dec("1500")},
		},
	})
	require.NoError(t, err)

	// THEN no record is emitted and the excess is reported
	assert.False(t, stream.Next())
	require.ErrorIs(t, stream.Err(), ErrPrepaymentExceedsBalance)

	var perr *PrepaymentExceedsBalanceError
	require.ErrorAs(t, stream.Err(), &perr)
	money(t, "500", perr.Excess)
	money(t, "1000", perr.Position)
}

// =============================================================================
// VALIDATION AND TAX
// =============================================================================

func TestPaymentsRejectsBadInputs(t *testing.T) {
	good := schedule.Bullet(date(2022, time.March, 9), date(2022, time.May, 9))

	_, err := Payments(decimal.Zero, dec("5"), good, Options{})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Payments(dec("100000"), dec("-5"), good, Options{})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Payments(dec("100000"), dec("5"), good, Options{PercentOfCDI: dec("-1")})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Payments(dec("100000"), dec("5"), good, Options{
		Events: []schedule.Event{{Date: date(2022, time.April, 1), Kind: schedule.Prepayment}},
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	bad := eightyTwenty()
	bad[2].Ratio = dec("0.1")
	_, err = Payments(dec("100000"), dec("5"), bad, Options{})
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestRegressiveTaxOnOneYearBullet(t *testing.T) {
	// GIVEN 120000 at 12% for one year: 14400 of interest, held 365
	// calendar days, so the 17.5% bracket applies
	entries := schedule.Bullet(date(2022, time.January, 1), date(2023, time.January, 1))
	stream, err := Payments(dec("120000"), dec("12"), entries, Options{Tax: RegressiveTax()})
	require.NoError(t, err)

	ps, err := stream.All()
	require.NoError(t, err)
	require.Len(t, ps, 1)

	money(t, "14400", ps[0].RawInterest)
	money(t, "2520", ps[0].Tax)
	money(t, "131880", ps[0].Net)
}

func TestFlatTaxAppliesToInterestOnly(t *testing.T) {
	stream, err := Payments(dec("100000"), dec("5"), eightyTwenty(), Options{Tax: FlatTax(dec("10"))})
	require.NoError(t, err)

	ps, err := stream.All()
	require.NoError(t, err)
	require.Len(t, ps, 2)

	// 10% of 407.41, not of the 80000 amortization
	money(t, "40.74", ps[0].Tax)
	money(t, "80366.67", ps[0].Net)
}
