package bond

import (
	"fmt"
	"math"
	"time"
)

// ModifiedDurationFromYield returns the modified duration: minus the first
// derivative of the dirty price with respect to yield, divided by the dirty
// price. Yield is fractional.
func ModifiedDurationFromYield(b *Bond, settlementDate time.Time, yield float64) (float64, error) {
	return ModifiedDurationFromYieldWith(b, b, settlementDate, yield)
}

// ModifiedDurationFromYieldWith is ModifiedDurationFromYield with the bond
// supplying cash flows and the bond supplying cash-flow timing passed as
// separate inputs. The period counter is used when duration timing is
// measured against a different period grid than the cash flows.
func ModifiedDurationFromYieldWith(b, periodCounter *Bond, settlementDate time.Time, yield float64) (float64, error) {
	nCoupon := len(b.Periods) - couponIndex(b.Periods, settlementDate)
	if nCoupon == 1 && (b.Convention == USStreet || b.Convention == DEBonds) {
		couponPerYear := float64(b.Frequency)
		factor, err := FactorToNextCoupon(periodCounter, settlementDate)
		if err != nil {
			return 0, err
		}
		return factor / couponPerYear / (1 + factor*yield/couponPerYear), nil
	}
	switch b.Convention {
	case USStreet, GBBumpDMO, DEBonds:
		return modifiedDurationFromYieldStandard(b, periodCounter, settlementDate, yield)
	case JPSimple:
		maturityDate := b.UnadjustedEndDate()
		if settlementDate.After(maturityDate) {
			return 0, nil
		}
		maturity := periodCounter.yearFraction(settlementDate, maturityDate)
		num := b.RedemptionRatio + b.FixedRate*maturity
		den := 1 + yield*maturity
		dirtyPrice, err := DirtyPriceFromCleanPrice(b, settlementDate, num/den)
		if err != nil {
			return 0, err
		}
		return num * maturity / den / den / dirtyPrice, nil
	}
	return 0, fmt.Errorf("ModifiedDurationFromYield: %w: %s", ErrUnsupportedConvention, b.Convention)
}

// ModifiedDurationFromYieldAd returns the modified duration and its analytic
// derivative with respect to the yield.
func ModifiedDurationFromYieldAd(b *Bond, settlementDate time.Time, yield float64) (md, deriv float64, err error) {
	nCoupon := len(b.Periods) - couponIndex(b.Periods, settlementDate)
	if nCoupon == 1 && (b.Convention == USStreet || b.Convention == DEBonds) {
		couponPerYear := float64(b.Frequency)
		factor, err := FactorToNextCoupon(b, settlementDate)
		if err != nil {
			return 0, 0, err
		}
		disc := 1 + factor*yield/couponPerYear
		md := factor / couponPerYear / disc
		yieldBar := -factor / couponPerYear / (disc * disc) * factor / couponPerYear
		return md, yieldBar, nil
	}
	switch b.Convention {
	case USStreet, GBBumpDMO, DEBonds:
		return modifiedDurationFromYieldStandardAd(b, settlementDate, yield)
	case JPSimple:
		maturityDate := b.UnadjustedEndDate()
		if settlementDate.After(maturityDate) {
			return 0, 0, nil
		}
		maturity := b.yearFraction(settlementDate, maturityDate)
		num := b.RedemptionRatio + b.FixedRate*maturity
		den := 1 + yield*maturity
		cleanPrice := num / den
		dirtyPrice, err := DirtyPriceFromCleanPrice(b, settlementDate, cleanPrice)
		if err != nil {
			return 0, 0, err
		}
		md := num * maturity / (den * den) / dirtyPrice
		// Backward sweep.
		mdBar := 1.0
		denBar := -2 * num * maturity / (den * den * den) / dirtyPrice * mdBar
		dirtyPriceBar := -md / dirtyPrice * mdBar
		cleanPriceBar := dirtyPriceBar
		denBar += -cleanPrice / den * cleanPriceBar
		yieldBar := maturity * denBar
		return md, yieldBar, nil
	}
	return 0, 0, fmt.Errorf("ModifiedDurationFromYieldAd: %w: %s", ErrUnsupportedConvention, b.Convention)
}

// modifiedDurationFromYieldStandard computes duration for the compounded
// conventions from the same per-period discounted terms as the price
// formula, weighted by time to each payment.
func modifiedDurationFromYieldStandard(b, periodCounter *Bond, settlementDate time.Time, yield float64) (float64, error) {
	nbCoupon := len(b.Periods)
	couponPerYear := float64(b.Frequency)
	factorToNextCoupon, err := FactorToNextCoupon(periodCounter, settlementDate)
	if err != nil {
		return 0, err
	}
	factorOnPeriod := 1 + yield/couponPerYear
	nominal := b.Notional
	fixedRate := b.FixedRate
	mdAtFirstCoupon := 0.0
	pvAtFirstCoupon := 0.0
	pow := 0
	for i := 0; i < nbCoupon; i++ {
		period := b.Periods[i]
		if period.includedAt(settlementDate) {
			mdAtFirstCoupon += period.YearFraction / math.Pow(factorOnPeriod, float64(pow)+1) *
				(float64(pow) + factorToNextCoupon) / couponPerYear
			pvAtFirstCoupon += period.YearFraction / math.Pow(factorOnPeriod, float64(pow))
			pow++
		}
	}
	mdAtFirstCoupon *= fixedRate * nominal
	pvAtFirstCoupon *= fixedRate * nominal
	mdAtFirstCoupon += nominal / math.Pow(factorOnPeriod, float64(pow)) *
		(float64(pow) - 1 + factorToNextCoupon) / couponPerYear
	pvAtFirstCoupon += nominal / math.Pow(factorOnPeriod, float64(pow)-1)
	return mdAtFirstCoupon / pvAtFirstCoupon, nil
}

func modifiedDurationFromYieldStandardAd(b *Bond, settlementDate time.Time, yield float64) (float64, float64, error) {
	nbCoupon := len(b.Periods)
	couponPerYear := float64(b.Frequency)
	factorToNextCoupon, err := FactorToNextCoupon(b, settlementDate)
	if err != nil {
		return 0, 0, err
	}
	factorOnPeriod := 1 + yield/couponPerYear
	nominal := b.Notional
	fixedRate := b.FixedRate
	mdAtFirstCoupon := 0.0
	pvAtFirstCoupon := 0.0
	pow := 0
	for i := 0; i < nbCoupon; i++ {
		period := b.Periods[i]
		if period.includedAt(settlementDate) {
			mdAtFirstCoupon += period.YearFraction / math.Pow(factorOnPeriod, float64(pow)+1) *
				(float64(pow) + factorToNextCoupon) / couponPerYear
			pvAtFirstCoupon += period.YearFraction / math.Pow(factorOnPeriod, float64(pow))
			pow++
		}
	}
	mdAtFirstCoupon *= fixedRate * nominal
	pvAtFirstCoupon *= fixedRate * nominal
	mdAtFirstCoupon += nominal / math.Pow(factorOnPeriod, float64(pow)) *
		(float64(pow) - 1 + factorToNextCoupon) / couponPerYear
	pvAtFirstCoupon += nominal * math.Pow(factorOnPeriod, 1-float64(pow))
	md := mdAtFirstCoupon / pvAtFirstCoupon
	// Backward sweep.
	mdAtFirstCouponBar := 1 / pvAtFirstCoupon
	pvAtFirstCouponBar := -mdAtFirstCoupon / (pvAtFirstCoupon * pvAtFirstCoupon)
	factorOnPeriodBar := nominal * (1 - float64(pow)) * math.Pow(factorOnPeriod, -float64(pow)) * pvAtFirstCouponBar
	factorOnPeriodBar += nominal * -float64(pow) * math.Pow(factorOnPeriod, -float64(pow)-1) *
		(float64(pow) - 1 + factorToNextCoupon) / couponPerYear * mdAtFirstCouponBar
	pow2 := 0
	for i := 0; i < nbCoupon; i++ {
		period := b.Periods[i]
		if period.includedAt(settlementDate) {
			factorOnPeriodBar += period.YearFraction * (-float64(pow2) - 1) * math.Pow(factorOnPeriod, -float64(pow2)-2) *
				(float64(pow2) + factorToNextCoupon) / couponPerYear * fixedRate * nominal * mdAtFirstCouponBar
			factorOnPeriodBar += period.YearFraction * -float64(pow2) * math.Pow(factorOnPeriod, -float64(pow2)-1) *
				fixedRate * nominal * pvAtFirstCouponBar
			pow2++
		}
	}
	yieldBar := 1 / couponPerYear * factorOnPeriodBar
	return md, yieldBar, nil
}

// MacaulayDurationFromYield returns the Macaulay duration: the present-value
// weighted average time to the cash flows.
func MacaulayDurationFromYield(b *Bond, settlementDate time.Time, yield float64) (float64, error) {
	return MacaulayDurationFromYieldWith(b, b, settlementDate, yield)
}

// MacaulayDurationFromYieldWith is MacaulayDurationFromYield with an
// explicit period-counting bond. JP-SIMPLE has no defined Macaulay duration
// and fails with ErrUnsupportedConvention.
func MacaulayDurationFromYieldWith(b, periodCounter *Bond, settlementDate time.Time, yield float64) (float64, error) {
	nCoupon := len(b.Periods) - couponIndex(b.Periods, settlementDate)
	if b.Convention == USStreet && nCoupon == 1 {
		factor, err := FactorToNextCoupon(periodCounter, settlementDate)
		if err != nil {
			return 0, err
		}
		return factor / float64(b.Frequency), nil
	}
	switch b.Convention {
	case USStreet, GBBumpDMO, DEBonds:
		md, err := ModifiedDurationFromYieldWith(b, periodCounter, settlementDate, yield)
		if err != nil {
			return 0, err
		}
		return md * (1 + yield/float64(b.Frequency)), nil
	}
	return 0, fmt.Errorf("MacaulayDurationFromYield: %w: %s", ErrUnsupportedConvention, b.Convention)
}

// ConvexityFromYield returns the second derivative of the dirty price with
// respect to yield, divided by the dirty price.
func ConvexityFromYield(b *Bond, settlementDate time.Time, yield float64) (float64, error) {
	nCoupon := len(b.Periods) - couponIndex(b.Periods, settlementDate)
	if nCoupon == 1 && (b.Convention == USStreet || b.Convention == DEBonds) {
		couponPerYear := float64(b.Frequency)
		factor, err := FactorToNextCoupon(b, settlementDate)
		if err != nil {
			return 0, err
		}
		timeToPay := factor / couponPerYear
		disc := 1 + factor*yield/couponPerYear
		return 2 * timeToPay * timeToPay / (disc * disc), nil
	}
	switch b.Convention {
	case USStreet, GBBumpDMO, DEBonds:
		return convexityFromYieldStandard(b, settlementDate, yield)
	case JPSimple:
		maturityDate := b.UnadjustedEndDate()
		if settlementDate.After(maturityDate) {
			return 0, nil
		}
		maturity := b.yearFraction(settlementDate, maturityDate)
		num := b.RedemptionRatio + b.FixedRate*maturity
		den := 1 + yield*maturity
		dirtyPrice, err := DirtyPriceFromCleanPrice(b, settlementDate, num/den)
		if err != nil {
			return 0, err
		}
		return 2 * num * maturity * maturity * math.Pow(den, -3) / dirtyPrice, nil
	}
	return 0, fmt.Errorf("ConvexityFromYield: %w: %s", ErrUnsupportedConvention, b.Convention)
}

// convexityFromYieldStandard assumes notional and coupon rate are constant
// across the payments.
func convexityFromYieldStandard(b *Bond, settlementDate time.Time, yield float64) (float64, error) {
	nbCoupon := len(b.Periods)
	couponPerYear := float64(b.Frequency)
	factorToNextCoupon, err := FactorToNextCoupon(b, settlementDate)
	if err != nil {
		return 0, err
	}
	factorOnPeriod := 1 + yield/couponPerYear
	nominal := b.Notional
	fixedRate := b.FixedRate
	cvAtFirstCoupon := 0.0
	pvAtFirstCoupon := 0.0
	pow := 0
	for i := 0; i < nbCoupon; i++ {
		period := b.Periods[i]
		if period.includedAt(settlementDate) {
			cvAtFirstCoupon += period.YearFraction / math.Pow(factorOnPeriod, float64(pow)+2) *
				(float64(pow) + factorToNextCoupon) * (float64(pow) + factorToNextCoupon + 1)
			pvAtFirstCoupon += period.YearFraction / math.Pow(factorOnPeriod, float64(pow))
			pow++
		}
	}
	cvAtFirstCoupon *= fixedRate * nominal / (couponPerYear * couponPerYear)
	pvAtFirstCoupon *= fixedRate * nominal
	cvAtFirstCoupon += nominal / math.Pow(factorOnPeriod, float64(pow)+1) *
		(float64(pow) - 1 + factorToNextCoupon) * (float64(pow) + factorToNextCoupon) / (couponPerYear * couponPerYear)
	pvAtFirstCoupon += nominal / math.Pow(factorOnPeriod, float64(pow)-1)
	pv := pvAtFirstCoupon * math.Pow(factorOnPeriod, -factorToNextCoupon)
	cv := cvAtFirstCoupon * math.Pow(factorOnPeriod, -factorToNextCoupon) / pv
	return cv, nil
}
