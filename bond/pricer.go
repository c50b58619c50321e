package bond

import (
	"time"

	"github.com/meenmo/bondlib/solver"
)

// Pricer bundles the root finder used by the yield and z-spread inversions.
// All pure formula operations are package-level functions; only inversions
// without a closed form go through the Pricer.
type Pricer struct {
	rootFinder RootFinder
}

// NewPricer returns a pricer using the given root finder. A nil finder
// selects Brent's method with default tolerances. If the finder also
// implements DerivativeRootFinder, yield solving switches to Newton steps on
// the analytic derivative path, starting from the bond's coupon rate.
func NewPricer(rootFinder RootFinder) *Pricer {
	if rootFinder == nil {
		rootFinder = solver.Brent{}
	}
	return &Pricer{rootFinder: rootFinder}
}

// PresentValue returns the present value of the bond on the reference date:
// the nominal present value plus the present value of every coupon whose
// detachment date is strictly after the reference date.
func PresentValue(b *Bond, issuer DiscountProvider, referenceDate time.Time) float64 {
	pv := presentValueNominal(b, issuer, referenceDate)
	for _, p := range b.Periods {
		if p.DetachmentDate.After(referenceDate) {
			pv += PeriodPresentValue(p, b.Notional, issuer)
		}
	}
	return pv
}

// PresentValueWithZSpread is PresentValue with the z-spread threaded through
// every discount factor lookup.
func PresentValueWithZSpread(
	b *Bond,
	issuer DiscountProvider,
	zSpread float64,
	compounding Compounding,
	periodsPerYear int,
	referenceDate time.Time,
) float64 {
	pv := presentValueNominalWithZSpread(b, issuer, zSpread, compounding, periodsPerYear, referenceDate)
	for _, p := range b.Periods {
		if p.DetachmentDate.After(referenceDate) {
			pv += PeriodPresentValueWithSpread(p, b.Notional, issuer, zSpread, compounding, periodsPerYear)
		}
	}
	return pv
}

func presentValueNominal(b *Bond, issuer DiscountProvider, referenceDate time.Time) float64 {
	if b.Nominal.Date.Before(referenceDate) {
		return 0
	}
	return b.Nominal.Amount * issuer.DiscountFactor(b.Nominal.Date)
}

func presentValueNominalWithZSpread(
	b *Bond,
	issuer DiscountProvider,
	zSpread float64,
	compounding Compounding,
	periodsPerYear int,
	referenceDate time.Time,
) float64 {
	if b.Nominal.Date.Before(referenceDate) {
		return 0
	}
	return b.Nominal.Amount * discountFactorWithSpread(issuer, b.Nominal.Date, zSpread, compounding, periodsPerYear)
}

// DirtyPriceFromCurves returns the dirty price for the settlement date: the
// present value rebased to settlement by the repo discount factor, as a
// fraction of notional.
func DirtyPriceFromCurves(b *Bond, repo, issuer DiscountProvider, settlementDate time.Time) float64 {
	pv := PresentValue(b, issuer, settlementDate)
	df := repo.DiscountFactor(settlementDate)
	return pv / df / b.Notional
}

// DirtyPriceFromCurvesWithZSpread is DirtyPriceFromCurves with the z-spread
// applied to the issuer curve.
func DirtyPriceFromCurvesWithZSpread(
	b *Bond,
	repo, issuer DiscountProvider,
	settlementDate time.Time,
	zSpread float64,
	compounding Compounding,
	periodsPerYear int,
) float64 {
	pv := PresentValueWithZSpread(b, issuer, zSpread, compounding, periodsPerYear, settlementDate)
	df := repo.DiscountFactor(settlementDate)
	return pv / df / b.Notional
}

// DirtyPriceFromCleanPrice converts a clean price to a dirty price by adding
// the accrued interest fraction at settlement.
func DirtyPriceFromCleanPrice(b *Bond, settlementDate time.Time, cleanPrice float64) (float64, error) {
	accrued, err := AccruedInterest(b, settlementDate)
	if err != nil {
		return 0, err
	}
	return cleanPrice + accrued/b.Notional, nil
}

// CleanPriceFromDirtyPrice converts a dirty price to a clean price by
// subtracting the accrued interest fraction at settlement.
func CleanPriceFromDirtyPrice(b *Bond, settlementDate time.Time, dirtyPrice float64) (float64, error) {
	accrued, err := AccruedInterest(b, settlementDate)
	if err != nil {
		return 0, err
	}
	return dirtyPrice - accrued/b.Notional, nil
}

// PresentValueSensitivity returns the sensitivity of the present value to
// the issuer curve's zero rates.
func PresentValueSensitivity(b *Bond, issuer DiscountProvider, referenceDate time.Time) PointSensitivity {
	sens := presentValueSensitivityNominal(b, issuer, referenceDate)
	for _, p := range b.Periods {
		if p.DetachmentDate.After(referenceDate) {
			sens = sens.CombinedWith(PeriodPresentValueSensitivity(p, b.Notional, issuer))
		}
	}
	return sens
}

// PresentValueSensitivityWithZSpread is the z-spread variant of
// PresentValueSensitivity.
func PresentValueSensitivityWithZSpread(
	b *Bond,
	issuer DiscountProvider,
	zSpread float64,
	compounding Compounding,
	periodsPerYear int,
	referenceDate time.Time,
) PointSensitivity {
	sens := presentValueSensitivityNominalWithZSpread(b, issuer, zSpread, compounding, periodsPerYear, referenceDate)
	for _, p := range b.Periods {
		if p.DetachmentDate.After(referenceDate) {
			sens = sens.CombinedWith(
				PeriodPresentValueSensitivityWithSpread(p, b.Notional, issuer, zSpread, compounding, periodsPerYear))
		}
	}
	return sens
}

func presentValueSensitivityNominal(b *Bond, issuer DiscountProvider, referenceDate time.Time) PointSensitivity {
	if b.Nominal.Date.Before(referenceDate) {
		return NoSensitivity()
	}
	return issuer.ZeroRatePointSensitivity(b.Nominal.Date).MultipliedBy(b.Nominal.Amount)
}

func presentValueSensitivityNominalWithZSpread(
	b *Bond,
	issuer DiscountProvider,
	zSpread float64,
	compounding Compounding,
	periodsPerYear int,
	referenceDate time.Time,
) PointSensitivity {
	if b.Nominal.Date.Before(referenceDate) {
		return NoSensitivity()
	}
	chain := spreadDiscountFactorDerivative(issuer, b.Nominal.Date, zSpread, compounding, periodsPerYear)
	return issuer.ZeroRatePointSensitivity(b.Nominal.Date).MultipliedBy(b.Nominal.Amount * chain)
}

// DirtyPriceSensitivity returns the sensitivity of the dirty price to the
// repo and issuer curves' zero rates.
func DirtyPriceSensitivity(b *Bond, repo, issuer DiscountProvider, settlementDate time.Time) PointSensitivity {
	pv := PresentValue(b, issuer, settlementDate)
	df := repo.DiscountFactor(settlementDate)
	// Backward sweep through price = pv / df / notional.
	pvBar := 1 / df / b.Notional
	dfBar := -pv / (df * df) / b.Notional
	pvSens := PresentValueSensitivity(b, issuer, settlementDate).MultipliedBy(pvBar)
	dfSens := repo.ZeroRatePointSensitivity(settlementDate).MultipliedBy(dfBar)
	return pvSens.CombinedWith(dfSens)
}

// DirtyPriceSensitivityWithZSpread is the z-spread variant of
// DirtyPriceSensitivity.
func DirtyPriceSensitivityWithZSpread(
	b *Bond,
	repo, issuer DiscountProvider,
	settlementDate time.Time,
	zSpread float64,
	compounding Compounding,
	periodsPerYear int,
) PointSensitivity {
	pv := PresentValueWithZSpread(b, issuer, zSpread, compounding, periodsPerYear, settlementDate)
	df := repo.DiscountFactor(settlementDate)
	pvSens := PresentValueSensitivityWithZSpread(b, issuer, zSpread, compounding, periodsPerYear, settlementDate).
		MultipliedBy(1 / df / b.Notional)
	dfSens := repo.ZeroRatePointSensitivity(settlementDate).MultipliedBy(-pv / (df * df) / b.Notional)
	return pvSens.CombinedWith(dfSens)
}
