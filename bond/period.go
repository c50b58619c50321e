package bond

import (
	"math"
	"time"
)

// PeriodPresentValue returns the present value of one coupon period against
// the issuer discounting curve.
func PeriodPresentValue(p CouponPeriod, notional float64, issuer DiscountProvider) float64 {
	return p.Amount(notional) * issuer.DiscountFactor(p.PaymentDate)
}

// PeriodPresentValueWithSpread returns the present value of one coupon
// period with the z-spread added to the issuer curve's zero rate before
// discounting.
func PeriodPresentValueWithSpread(
	p CouponPeriod,
	notional float64,
	issuer DiscountProvider,
	zSpread float64,
	compounding Compounding,
	periodsPerYear int,
) float64 {
	return p.Amount(notional) * discountFactorWithSpread(issuer, p.PaymentDate, zSpread, compounding, periodsPerYear)
}

// PeriodPresentValueSensitivity returns the sensitivity of the period present
// value to the issuer curve's zero rates.
func PeriodPresentValueSensitivity(p CouponPeriod, notional float64, issuer DiscountProvider) PointSensitivity {
	return issuer.ZeroRatePointSensitivity(p.PaymentDate).MultipliedBy(p.Amount(notional))
}

// PeriodPresentValueSensitivityWithSpread is the z-spread variant of
// PeriodPresentValueSensitivity.
func PeriodPresentValueSensitivityWithSpread(
	p CouponPeriod,
	notional float64,
	issuer DiscountProvider,
	zSpread float64,
	compounding Compounding,
	periodsPerYear int,
) PointSensitivity {
	chain := spreadDiscountFactorDerivative(issuer, p.PaymentDate, zSpread, compounding, periodsPerYear)
	return issuer.ZeroRatePointSensitivity(p.PaymentDate).MultipliedBy(p.Amount(notional) * chain)
}

// discountFactorWithSpread shifts the curve's zero rate by the spread under
// the requested compounding and returns the resulting discount factor.
func discountFactorWithSpread(
	provider DiscountProvider,
	date time.Time,
	zSpread float64,
	compounding Compounding,
	periodsPerYear int,
) float64 {
	df := provider.DiscountFactor(date)
	t := provider.RelativeYearFraction(date)
	if t <= 0 {
		return df
	}
	if compounding == Periodic {
		n := float64(periodsPerYear)
		ratePeriodic := n * (math.Pow(df, -1/(n*t)) - 1)
		return math.Pow(1+(ratePeriodic+zSpread)/n, -n*t)
	}
	return df * math.Exp(-zSpread*t)
}

// spreadDiscountFactorDerivative returns d(spread discount factor)/d(df),
// the chain-rule factor linking spread-shifted discounting to the plain
// discount factor sensitivity.
func spreadDiscountFactorDerivative(
	provider DiscountProvider,
	date time.Time,
	zSpread float64,
	compounding Compounding,
	periodsPerYear int,
) float64 {
	df := provider.DiscountFactor(date)
	t := provider.RelativeYearFraction(date)
	if t <= 0 {
		return 1
	}
	if compounding == Periodic {
		n := float64(periodsPerYear)
		base := math.Pow(df, -1/(n*t)) + zSpread/n
		return math.Pow(base, -n*t-1) * math.Pow(df, -1/(n*t)-1)
	}
	return math.Exp(-zSpread * t)
}
