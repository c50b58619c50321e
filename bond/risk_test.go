package bond_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/utils"
)

func priceAt(t *testing.T, b *bond.Bond, settle time.Time) func(float64) float64 {
	t.Helper()
	return func(y float64) float64 {
		p, err := bond.DirtyPriceFromYield(b, settle, y)
		require.NoError(t, err)
		return p
	}
}

func TestModifiedDurationMatchesFiniteDifference(t *testing.T) {
	t.Parallel()

	start := d(2020, time.January, 15)
	end := d(2030, time.January, 15)

	cases := []struct {
		name   string
		conv   bond.YieldConvention
		settle time.Time
	}{
		{"us street", bond.USStreet, d(2025, time.March, 20)},
		{"gb bump dmo", bond.GBBumpDMO, d(2025, time.March, 20)},
		{"de bonds", bond.DEBonds, d(2025, time.March, 20)},
		{"jp simple", bond.JPSimple, d(2025, time.March, 20)},
		{"us street single coupon", bond.USStreet, d(2029, time.October, 1)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := semiannualBond(tc.conv, 0.04625, start, end)
			yield := 0.0345
			md, err := bond.ModifiedDurationFromYield(b, tc.settle, yield)
			require.NoError(t, err)

			price := priceAt(t, b, tc.settle)
			want := -centralDiff(price, yield, 1e-6) / price(yield)
			assert.InDelta(t, want, md, 1e-6)
		})
	}
}

func TestModifiedDurationAdMatchesFiniteDifference(t *testing.T) {
	t.Parallel()

	start := d(2020, time.January, 15)
	end := d(2030, time.January, 15)

	cases := []struct {
		name   string
		conv   bond.YieldConvention
		settle time.Time
	}{
		{"us street", bond.USStreet, d(2025, time.March, 20)},
		{"jp simple", bond.JPSimple, d(2025, time.March, 20)},
		{"us street single coupon", bond.USStreet, d(2029, time.October, 1)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := semiannualBond(tc.conv, 0.04625, start, end)
			yield := 0.0345
			md, deriv, err := bond.ModifiedDurationFromYieldAd(b, tc.settle, yield)
			require.NoError(t, err)

			direct, err := bond.ModifiedDurationFromYield(b, tc.settle, yield)
			require.NoError(t, err)
			assert.InDelta(t, direct, md, 1e-12)

			fd := centralDiff(func(y float64) float64 {
				m, err := bond.ModifiedDurationFromYield(b, tc.settle, y)
				require.NoError(t, err)
				return m
			}, yield, 1e-6)
			assert.InDelta(t, fd, deriv, 1e-5)
		})
	}
}

func TestMacaulayDuration(t *testing.T) {
	t.Parallel()

	start := d(2020, time.January, 15)
	end := d(2030, time.January, 15)
	settle := d(2025, time.March, 20)
	yield := 0.0345

	t.Run("compounded conventions scale modified duration", func(t *testing.T) {
		t.Parallel()
		for _, conv := range []bond.YieldConvention{bond.USStreet, bond.GBBumpDMO, bond.DEBonds} {
			b := semiannualBond(conv, 0.04625, start, end)
			md, err := bond.ModifiedDurationFromYield(b, settle, yield)
			require.NoError(t, err)
			mac, err := bond.MacaulayDurationFromYield(b, settle, yield)
			require.NoError(t, err)
			assert.InDelta(t, md*(1+yield/2), mac, 1e-12)
		}
	})
	t.Run("us street single coupon is time to payment", func(t *testing.T) {
		t.Parallel()
		b := semiannualBond(bond.USStreet, 0.04625, start, end)
		lastSettle := d(2029, time.October, 1)
		factor, err := bond.FactorToNextCoupon(b, lastSettle)
		require.NoError(t, err)
		mac, err := bond.MacaulayDurationFromYield(b, lastSettle, yield)
		require.NoError(t, err)
		assert.InDelta(t, factor/2, mac, 1e-12)
	})
	t.Run("jp simple is unsupported", func(t *testing.T) {
		t.Parallel()
		b := semiannualBond(bond.JPSimple, 0.04625, start, end)
		_, err := bond.MacaulayDurationFromYield(b, settle, yield)
		assert.ErrorIs(t, err, bond.ErrUnsupportedConvention)
	})
}

func TestDurationWithSeparatePeriodCountingBond(t *testing.T) {
	t.Parallel()

	// Cash flows come from the first bond; time to the next coupon is
	// measured on a grid shifted one month later.
	cashFlow := semiannualBond(bond.USStreet, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15))
	counter := semiannualBond(bond.USStreet, 0.04625, d(2020, time.February, 15), d(2030, time.February, 15))
	yield := 0.031

	t.Run("single coupon uses the counter grid factor", func(t *testing.T) {
		t.Parallel()
		settle := d(2029, time.October, 1) // final period of the cash-flow bond
		factor, err := bond.FactorToNextCoupon(counter, settle)
		require.NoError(t, err)

		md, err := bond.ModifiedDurationFromYieldWith(cashFlow, counter, settle, yield)
		require.NoError(t, err)
		assert.InDelta(t, factor/2/(1+factor*yield/2), md, 1e-12)

		plain, err := bond.ModifiedDurationFromYield(cashFlow, settle, yield)
		require.NoError(t, err)
		assert.NotEqual(t, plain, md)

		mac, err := bond.MacaulayDurationFromYieldWith(cashFlow, counter, settle, yield)
		require.NoError(t, err)
		assert.InDelta(t, factor/2, mac, 1e-12)
	})

	t.Run("standard case shifts with the counter grid", func(t *testing.T) {
		t.Parallel()
		settle := d(2025, time.March, 20)
		// The counter period started a month later, so more of it remains.
		bFactor, err := bond.FactorToNextCoupon(cashFlow, settle)
		require.NoError(t, err)
		cFactor, err := bond.FactorToNextCoupon(counter, settle)
		require.NoError(t, err)
		require.Greater(t, cFactor, bFactor)

		md, err := bond.ModifiedDurationFromYieldWith(cashFlow, counter, settle, yield)
		require.NoError(t, err)
		plain, err := bond.ModifiedDurationFromYield(cashFlow, settle, yield)
		require.NoError(t, err)
		assert.Greater(t, md, plain)

		mac, err := bond.MacaulayDurationFromYieldWith(cashFlow, counter, settle, yield)
		require.NoError(t, err)
		assert.InDelta(t, md*(1+yield/2), mac, 1e-12)
	})

	t.Run("jp simple measures maturity on the counter day count", func(t *testing.T) {
		t.Parallel()
		jp := semiannualBond(bond.JPSimple, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15))
		jpCounter := semiannualBond(bond.JPSimple, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15))
		jpCounter.DayCount = "ACT/360"
		settle := d(2025, time.March, 20)

		maturity := utils.YearFraction(settle, d(2030, time.January, 15), "ACT/360")
		num := 1 + 0.04625*maturity
		den := 1 + yield*maturity
		dirty, err := bond.DirtyPriceFromCleanPrice(jp, settle, num/den)
		require.NoError(t, err)

		md, err := bond.ModifiedDurationFromYieldWith(jp, jpCounter, settle, yield)
		require.NoError(t, err)
		assert.InDelta(t, num*maturity/den/den/dirty, md, 1e-12)

		plain, err := bond.ModifiedDurationFromYield(jp, settle, yield)
		require.NoError(t, err)
		assert.NotEqual(t, plain, md)
	})
}

func TestConvexityMatchesFiniteDifference(t *testing.T) {
	t.Parallel()

	start := d(2020, time.January, 15)
	end := d(2030, time.January, 15)

	cases := []struct {
		name   string
		conv   bond.YieldConvention
		settle time.Time
	}{
		{"us street", bond.USStreet, d(2025, time.March, 20)},
		{"gb bump dmo", bond.GBBumpDMO, d(2025, time.March, 20)},
		{"de bonds", bond.DEBonds, d(2025, time.March, 20)},
		{"jp simple", bond.JPSimple, d(2025, time.March, 20)},
		{"us street single coupon", bond.USStreet, d(2029, time.October, 1)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := semiannualBond(tc.conv, 0.04625, start, end)
			yield := 0.0345
			cv, err := bond.ConvexityFromYield(b, tc.settle, yield)
			require.NoError(t, err)

			price := priceAt(t, b, tc.settle)
			h := 1e-4
			second := (price(yield+h) - 2*price(yield) + price(yield-h)) / (h * h)
			assert.InDelta(t, second/price(yield), cv, 1e-4)
		})
	}
}
