package bond

import (
	"fmt"
	"time"
)

// ZSpreadFromCurvesAndDirtyPrice calibrates the parallel zero-rate shift of
// the issuer curve that reprices the bond to the target dirty price. The
// root is bracketed starting from [-1%, 1%] and solved with the configured
// root finder.
func (pr *Pricer) ZSpreadFromCurvesAndDirtyPrice(
	b *Bond,
	repo, issuer DiscountProvider,
	settlementDate time.Time,
	dirtyPrice float64,
	compounding Compounding,
	periodsPerYear int,
) (float64, error) {
	residual := func(z float64) float64 {
		return DirtyPriceFromCurvesWithZSpread(b, repo, issuer, settlementDate, z, compounding, periodsPerYear) -
			dirtyPrice
	}
	lo, hi, err := pr.rootFinder.Bracket(residual, -0.01, 0.01)
	if err != nil {
		return 0, fmt.Errorf("ZSpreadFromCurvesAndDirtyPrice: %w", err)
	}
	zSpread, err := pr.rootFinder.Root(residual, lo, hi)
	if err != nil {
		return 0, fmt.Errorf("ZSpreadFromCurvesAndDirtyPrice: %w", err)
	}
	return zSpread, nil
}
