package bond_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/curve"
)

func TestZSpreadRecoversKnownSpread(t *testing.T) {
	t.Parallel()

	b := semiannualBond(bond.USStreet, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15))
	valuation := d(2025, time.June, 1)
	settle := d(2025, time.June, 3)
	issuer := issuerCurve(valuation, b, settle)
	repo := curve.Flat("repo", valuation, 0.015)
	pricer := bond.NewPricer(nil)

	cases := []struct {
		name           string
		compounding    bond.Compounding
		periodsPerYear int
		zSpread        float64
	}{
		{"continuous", bond.Continuous, 0, 0.0065},
		{"periodic semiannual", bond.Periodic, 2, 0.0065},
		{"negative spread", bond.Continuous, 0, -0.0035},
		{"wide spread outside initial bracket", bond.Continuous, 0, 0.028},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			target := bond.DirtyPriceFromCurvesWithZSpread(
				b, repo, issuer, settle, tc.zSpread, tc.compounding, tc.periodsPerYear)
			got, err := pricer.ZSpreadFromCurvesAndDirtyPrice(
				b, repo, issuer, settle, target, tc.compounding, tc.periodsPerYear)
			require.NoError(t, err)
			assert.InDelta(t, tc.zSpread, got, 1e-8)
		})
	}
}

func TestZSpreadZeroWhenPricedOnCurve(t *testing.T) {
	t.Parallel()

	b := semiannualBond(bond.USStreet, 0.04625, d(2020, time.January, 15), d(2030, time.January, 15))
	valuation := d(2025, time.June, 1)
	settle := d(2025, time.June, 3)
	issuer := issuerCurve(valuation, b, settle)
	repo := curve.Flat("repo", valuation, 0.015)
	pricer := bond.NewPricer(nil)

	target := bond.DirtyPriceFromCurves(b, repo, issuer, settle)
	got, err := pricer.ZSpreadFromCurvesAndDirtyPrice(
		b, repo, issuer, settle, target, bond.Continuous, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, got, 1e-8)
}
