package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/bondlib/utils"
)

// DirtyPriceFromYield returns the dirty price implied by a yield under the
// bond's quotation convention. Yield and price are fractional.
//
// US-STREET and DE-BONDS bonds with a single coupon remaining use a simple
// money-market style discounting of the final payment; the standard
// conventions discount each remaining coupon geometrically and roll the sum
// back to settlement by a fractional power; JP-SIMPLE quotes a simple yield
// off the clean price and is 0 past maturity.
func DirtyPriceFromYield(b *Bond, settlementDate time.Time, yield float64) (float64, error) {
	nCoupon := len(b.Periods) - couponIndex(b.Periods, settlementDate)
	if nCoupon == 1 && (b.Convention == USStreet || b.Convention == DEBonds) {
		last := b.Periods[len(b.Periods)-1]
		factor, err := FactorToNextCoupon(b, settlementDate)
		if err != nil {
			return 0, err
		}
		return (b.RedemptionRatio + last.FixedRate*last.YearFraction) /
			(1 + factor*yield/float64(b.Frequency)), nil
	}
	switch b.Convention {
	case USStreet, GBBumpDMO, DEBonds:
		return dirtyPriceFromYieldStandard(b, settlementDate, yield)
	case JPSimple:
		maturityDate := b.UnadjustedEndDate()
		if settlementDate.After(maturityDate) {
			return 0, nil
		}
		maturity := b.yearFraction(settlementDate, maturityDate)
		cleanPrice := (b.RedemptionRatio + b.FixedRate*maturity) / (1 + yield*maturity)
		return DirtyPriceFromCleanPrice(b, settlementDate, cleanPrice)
	}
	return 0, fmt.Errorf("DirtyPriceFromYield: %w: %s", ErrUnsupportedConvention, b.Convention)
}

// DirtyPriceFromYieldAd returns the dirty price implied by a yield together
// with its analytic derivative with respect to the yield.
func DirtyPriceFromYieldAd(b *Bond, settlementDate time.Time, yield float64) (price, deriv float64, err error) {
	nCoupon := len(b.Periods) - couponIndex(b.Periods, settlementDate)
	if nCoupon == 1 && (b.Convention == USStreet || b.Convention == DEBonds) {
		last := b.Periods[len(b.Periods)-1]
		factor, err := FactorToNextCoupon(b, settlementDate)
		if err != nil {
			return 0, 0, err
		}
		couponPerYear := float64(b.Frequency)
		df := 1 + factor*yield/couponPerYear
		num := b.RedemptionRatio + last.FixedRate*last.YearFraction
		price := num / df
		yieldBar := -num / (df * df) * factor / couponPerYear
		return price, yieldBar, nil
	}
	switch b.Convention {
	case USStreet, GBBumpDMO, DEBonds:
		return dirtyPriceFromYieldStandardAd(b, settlementDate, yield)
	case JPSimple:
		maturityDate := b.UnadjustedEndDate()
		if settlementDate.After(maturityDate) {
			return 0, 0, nil
		}
		maturity := b.yearFraction(settlementDate, maturityDate)
		den := 1 + yield*maturity
		cleanPrice := (b.RedemptionRatio + b.FixedRate*maturity) / den
		price, err := DirtyPriceFromCleanPrice(b, settlementDate, cleanPrice)
		if err != nil {
			return 0, 0, err
		}
		yieldBar := -(b.RedemptionRatio + b.FixedRate*maturity) / (den * den) * maturity
		return price, yieldBar, nil
	}
	return 0, 0, fmt.Errorf("DirtyPriceFromYieldAd: %w: %s", ErrUnsupportedConvention, b.Convention)
}

// includedAt reports whether the period's coupon is still owed to a holder
// settling on the given date.
func (p CouponPeriod) includedAt(settlementDate time.Time) bool {
	if p.HasExCoupon {
		return !settlementDate.After(p.DetachmentDate)
	}
	return p.PaymentDate.After(settlementDate)
}

// dirtyPriceFromYieldStandard discounts each remaining coupon at
// (1 + y/f)^-k, adds the redemption plus final coupon at a fractional
// terminal power, and rolls the sum back to settlement.
func dirtyPriceFromYieldStandard(b *Bond, settlementDate time.Time, yield float64) (float64, error) {
	nbCoupon := len(b.Periods) - 1
	couponPerYear := float64(b.Frequency)
	factorOnPeriod := 1 + yield/couponPerYear
	pvAtFirstCoupon := 0.0
	pow := 0
	for i := 0; i < nbCoupon; i++ {
		period := b.Periods[i]
		if period.includedAt(settlementDate) {
			pvAtFirstCoupon += b.FixedRate * period.YearFraction * math.Pow(factorOnPeriod, -float64(pow))
			pow++
		}
	}
	lastPeriod := b.Periods[nbCoupon]
	lastPow := float64(pow) - 1 + lastPeriod.YearFraction*couponPerYear
	pvAtFirstCoupon += (b.RedemptionRatio + b.FixedRate*lastPeriod.YearFraction) * math.Pow(factorOnPeriod, -lastPow)
	factorNextCoupon, err := FactorToNextCoupon(b, settlementDate)
	if err != nil {
		return 0, err
	}
	return pvAtFirstCoupon * math.Pow(factorOnPeriod, -factorNextCoupon), nil
}

// dirtyPriceFromYieldStandardAd is dirtyPriceFromYieldStandard plus a
// reverse sweep accumulating the derivative of every discounted term with
// respect to the shared base (1 + y/f), chained with the fractional rollback
// factor.
func dirtyPriceFromYieldStandardAd(b *Bond, settlementDate time.Time, yield float64) (float64, float64, error) {
	nbCoupon := len(b.Periods) - 1
	couponPerYear := float64(b.Frequency)
	factorOnPeriod := 1 + yield/couponPerYear
	pvAtFirstCoupon := 0.0
	pow := 0
	for i := 0; i < nbCoupon; i++ {
		period := b.Periods[i]
		if period.includedAt(settlementDate) {
			pvAtFirstCoupon += b.FixedRate * period.YearFraction * math.Pow(factorOnPeriod, -float64(pow))
			pow++
		}
	}
	lastPeriod := b.Periods[nbCoupon]
	lastPow := float64(pow) - 1 + lastPeriod.YearFraction*couponPerYear
	pvAtFirstCoupon += (b.RedemptionRatio + b.FixedRate*lastPeriod.YearFraction) * math.Pow(factorOnPeriod, -lastPow)
	factorNextCoupon, err := FactorToNextCoupon(b, settlementDate)
	if err != nil {
		return 0, 0, err
	}
	priceAfter := math.Pow(factorOnPeriod, -factorNextCoupon)
	price := pvAtFirstCoupon * priceAfter
	// Backward sweep.
	factorOnPeriodBar := -lastPow * math.Pow(factorOnPeriod, -lastPow-1) * priceAfter
	pow2 := 0
	for i := 0; i < nbCoupon; i++ {
		period := b.Periods[i]
		if period.includedAt(settlementDate) {
			factorOnPeriodBar +=
				b.FixedRate * period.YearFraction * -float64(pow2) * math.Pow(factorOnPeriod, -float64(pow2)-1) * priceAfter
			pow2++
		}
	}
	factorOnPeriodBar +=
		b.FixedRate * lastPeriod.YearFraction * -lastPow * math.Pow(factorOnPeriod, -lastPow-1) * priceAfter
	factorOnPeriodBar += -factorNextCoupon * math.Pow(factorOnPeriod, -factorNextCoupon-1) * pvAtFirstCoupon
	yieldBar := 1 / couponPerYear * factorOnPeriodBar
	return price, yieldBar, nil
}

// YieldFromDirtyPrice inverts DirtyPriceFromYield.
//
// JP-SIMPLE and the US-STREET/DE-BONDS single-coupon case invert
// algebraically; everything else solves the forward formula with the
// configured root finder. AUD and CAD bonds annualize the single-coupon
// yield by actual days to maturity over 365 instead of the coupon-count
// factor.
func (pr *Pricer) YieldFromDirtyPrice(b *Bond, settlementDate time.Time, dirtyPrice float64) (float64, error) {
	if b.Convention == JPSimple {
		cleanPrice, err := CleanPriceFromDirtyPrice(b, settlementDate, dirtyPrice)
		if err != nil {
			return 0, err
		}
		maturity := b.yearFraction(settlementDate, b.UnadjustedEndDate())
		return (b.FixedRate + (b.RedemptionRatio-cleanPrice)/maturity) / cleanPrice, nil
	}

	nCoupon := len(b.Periods) - couponIndex(b.Periods, settlementDate)
	if nCoupon == 1 && (b.Convention == USStreet || b.Convention == DEBonds) {
		last := b.Periods[len(b.Periods)-1]
		absYield := (b.RedemptionRatio+last.FixedRate*last.YearFraction)/dirtyPrice - 1
		if absYield == 0 {
			return 0, nil
		}
		var annualMultiplier float64
		if b.Currency == "AUD" || b.Currency == "CAD" {
			annualMultiplier = 365.0 / utils.Days(settlementDate, b.UnadjustedEndDate())
		} else {
			factor, err := FactorToNextCoupon(b, settlementDate)
			if err != nil {
				return 0, err
			}
			annualMultiplier = float64(b.Frequency) / factor
		}
		return absYield * annualMultiplier, nil
	}

	return pr.findYield(b, settlementDate, dirtyPrice)
}

// YieldFromDirtyPriceAd returns the yield and its derivative with respect to
// the dirty price.
func (pr *Pricer) YieldFromDirtyPriceAd(b *Bond, settlementDate time.Time, dirtyPrice float64) (yield, deriv float64, err error) {
	if b.Convention == JPSimple {
		cleanPrice, err := CleanPriceFromDirtyPrice(b, settlementDate, dirtyPrice)
		if err != nil {
			return 0, 0, err
		}
		maturity := b.yearFraction(settlementDate, b.UnadjustedEndDate())
		y := (b.FixedRate + (b.RedemptionRatio-cleanPrice)/maturity) / cleanPrice
		priceBar := (-1/maturity*cleanPrice - (b.FixedRate + (b.RedemptionRatio-cleanPrice)/maturity)) /
			(cleanPrice * cleanPrice)
		return y, priceBar, nil
	}
	y, err := pr.findYield(b, settlementDate, dirtyPrice)
	if err != nil {
		return 0, 0, err
	}
	_, dPrice, err := DirtyPriceFromYieldAd(b, settlementDate, y)
	if err != nil {
		return 0, 0, err
	}
	return y, 1 / dPrice, nil
}

// findYield solves dirtyPriceFromYield(y) = dirtyPrice. A derivative-aware
// finder Newton-steps on the analytic derivative from the coupon rate;
// otherwise the residual is bracketed in [0%, 20%] and solved directly.
func (pr *Pricer) findYield(b *Bond, settlementDate time.Time, dirtyPrice float64) (float64, error) {
	var evalErr error
	if nr, ok := pr.rootFinder.(DerivativeRootFinder); ok {
		residualAd := func(y float64) (float64, float64) {
			price, deriv, err := DirtyPriceFromYieldAd(b, settlementDate, y)
			if err != nil && evalErr == nil {
				evalErr = err
			}
			return price - dirtyPrice, deriv
		}
		yield, err := nr.RootWithDerivative(residualAd, b.FixedRate)
		if evalErr != nil {
			return 0, fmt.Errorf("YieldFromDirtyPrice: %w", evalErr)
		}
		if err != nil {
			return 0, fmt.Errorf("YieldFromDirtyPrice: %w", err)
		}
		return yield, nil
	}
	residual := func(y float64) float64 {
		price, err := DirtyPriceFromYield(b, settlementDate, y)
		if err != nil && evalErr == nil {
			evalErr = err
		}
		return price - dirtyPrice
	}
	lo, hi, err := pr.rootFinder.Bracket(residual, 0.00, 0.20)
	if evalErr != nil {
		return 0, fmt.Errorf("YieldFromDirtyPrice: %w", evalErr)
	}
	if err != nil {
		return 0, fmt.Errorf("YieldFromDirtyPrice: %w", err)
	}
	yield, err := pr.rootFinder.Root(residual, lo, hi)
	if evalErr != nil {
		return 0, fmt.Errorf("YieldFromDirtyPrice: %w", evalErr)
	}
	if err != nil {
		return 0, fmt.Errorf("YieldFromDirtyPrice: %w", err)
	}
	return yield, nil
}
