package bond_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/utils"
)

// issuerCurve places a node on every remaining payment date so bump-and-
// reprice hits each sensitivity point exactly.
func issuerCurve(valuation time.Time, b *bond.Bond, settle time.Time) *curve.ZeroCurve {
	nodes := make(map[time.Time]float64)
	i := 0
	for _, p := range b.Periods {
		if p.PaymentDate.After(settle) {
			nodes[p.PaymentDate] = 0.02 + 0.001*float64(i)
			i++
		}
	}
	return curve.NewZeroCurve("govt", valuation, nodes)
}

func TestPresentValueDirectDiscounting(t *testing.T) {
	t.Parallel()

	b := semiannualBond(bond.USStreet, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15))
	valuation := d(2025, time.June, 1)
	settle := d(2025, time.June, 3)
	rate := 0.03
	issuer := curve.Flat("govt", valuation, rate)

	got := bond.PresentValue(b, issuer, settle)

	want := 0.0
	for _, p := range b.Periods {
		if p.DetachmentDate.After(settle) {
			yf := utils.YearFraction(valuation, p.PaymentDate, "ACT/365F")
			want += p.Amount(b.Notional) * math.Exp(-rate*yf)
		}
	}
	yf := utils.YearFraction(valuation, b.Nominal.Date, "ACT/365F")
	want += b.Nominal.Amount * math.Exp(-rate*yf)
	assert.InDelta(t, want, got, 1e-9)
}

func TestPresentValueExCouponGating(t *testing.T) {
	t.Parallel()

	b := withExCoupon(
		semiannualBond(bond.GBBumpDMO, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15)), 7)
	valuation := d(2025, time.June, 1)
	issuer := curve.Flat("gilt", valuation, 0.03)

	// The coupon paying 2025-07-15 detaches 2025-07-08.
	detach := d(2025, time.July, 8)
	cum := bond.PresentValue(b, issuer, detach.AddDate(0, 0, -1))
	ex := bond.PresentValue(b, issuer, detach)

	couponPV := 0.04625 * 0.5 * 100 * issuer.DiscountFactor(d(2025, time.July, 15))
	assert.InDelta(t, couponPV, cum-ex, 1e-9)
}

func TestDirtyCleanRoundTrip(t *testing.T) {
	t.Parallel()

	b := semiannualBond(bond.USStreet, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15))
	settle := d(2025, time.March, 20)

	dirty, err := bond.DirtyPriceFromCleanPrice(b, settle, 0.987)
	require.NoError(t, err)
	accrued, err := bond.AccruedInterest(b, settle)
	require.NoError(t, err)
	assert.InDelta(t, 0.987+accrued/100, dirty, 1e-12)

	clean, err := bond.CleanPriceFromDirtyPrice(b, settle, dirty)
	require.NoError(t, err)
	assert.InDelta(t, 0.987, clean, 1e-12)
}

func TestPresentValueWithZeroSpreadMatchesBase(t *testing.T) {
	t.Parallel()

	b := semiannualBond(bond.USStreet, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15))
	valuation := d(2025, time.June, 1)
	settle := d(2025, time.June, 3)
	issuer := issuerCurve(valuation, b, settle)
	base := bond.PresentValue(b, issuer, settle)

	continuous := bond.PresentValueWithZSpread(b, issuer, 0, bond.Continuous, 0, settle)
	assert.InDelta(t, base, continuous, 1e-9)

	periodic := bond.PresentValueWithZSpread(b, issuer, 0, bond.Periodic, 2, settle)
	assert.InDelta(t, base, periodic, 1e-9)
}

func TestZSpreadLowersPresentValue(t *testing.T) {
	t.Parallel()

	b := semiannualBond(bond.USStreet, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15))
	valuation := d(2025, time.June, 1)
	settle := d(2025, time.June, 3)
	issuer := issuerCurve(valuation, b, settle)

	base := bond.PresentValue(b, issuer, settle)
	spread := bond.PresentValueWithZSpread(b, issuer, 0.01, bond.Continuous, 0, settle)
	assert.Less(t, spread, base)
}

func TestDirtyPriceSensitivityMatchesBump(t *testing.T) {
	t.Parallel()

	b := semiannualBond(bond.USStreet, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15))
	valuation := d(2025, time.June, 1)
	settle := d(2025, time.June, 3)
	issuer := issuerCurve(valuation, b, settle)
	repo := curve.Flat("repo", valuation, 0.015)

	base := bond.DirtyPriceFromCurves(b, repo, issuer, settle)
	points := bond.DirtyPriceSensitivity(b, repo, issuer, settle).Normalized()
	require.NotEmpty(t, points)

	const h = 1e-6
	for _, pt := range points {
		var bumped float64
		switch pt.Curve {
		case "repo":
			bumped = bond.DirtyPriceFromCurves(b, repo.Bumped(pt.Date, h), issuer, settle)
		case "govt":
			bumped = bond.DirtyPriceFromCurves(b, repo, issuer.Bumped(pt.Date, h), settle)
		default:
			t.Fatalf("unexpected curve %q", pt.Curve)
		}
		fd := (bumped - base) / h
		assert.InEpsilon(t, fd, pt.Value, 1e-4, "curve %s date %s", pt.Curve, pt.Date.Format("2006-01-02"))
	}
}

func TestDirtyPriceSensitivityWithZSpreadMatchesBump(t *testing.T) {
	t.Parallel()

	b := semiannualBond(bond.USStreet, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15))
	valuation := d(2025, time.June, 1)
	settle := d(2025, time.June, 3)
	issuer := issuerCurve(valuation, b, settle)
	repo := curve.Flat("repo", valuation, 0.015)

	cases := []struct {
		name           string
		compounding    bond.Compounding
		periodsPerYear int
	}{
		{"continuous", bond.Continuous, 0},
		{"periodic", bond.Periodic, 2},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			zSpread := 0.004
			price := func(repoCurve, issuerCurve bond.DiscountProvider) float64 {
				return bond.DirtyPriceFromCurvesWithZSpread(
					b, repoCurve, issuerCurve, settle, zSpread, tc.compounding, tc.periodsPerYear)
			}
			base := price(repo, issuer)
			points := bond.DirtyPriceSensitivityWithZSpread(
				b, repo, issuer, settle, zSpread, tc.compounding, tc.periodsPerYear).Normalized()
			require.NotEmpty(t, points)

			const h = 1e-6
			for _, pt := range points {
				var bumped float64
				switch pt.Curve {
				case "repo":
					bumped = price(repo.Bumped(pt.Date, h), issuer)
				case "govt":
					bumped = price(repo, issuer.Bumped(pt.Date, h))
				default:
					t.Fatalf("unexpected curve %q", pt.Curve)
				}
				fd := (bumped - base) / h
				assert.InEpsilon(t, fd, pt.Value, 1e-4, "curve %s date %s", pt.Curve, pt.Date.Format("2006-01-02"))
			}
		})
	}
}

func TestPresentValueNominalPastMaturity(t *testing.T) {
	t.Parallel()

	b := semiannualBond(bond.USStreet, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15))
	valuation := d(2025, time.June, 1)
	issuer := curve.Flat("govt", valuation, 0.03)

	pv := bond.PresentValue(b, issuer, d(2030, time.January, 16))
	assert.Equal(t, 0.0, pv)
}
