package bond

import (
	"fmt"
	"time"
)

// AccruedYearFraction returns the accrued coupon year fraction at the
// settlement date.
//
// Settlement before the bond's start accrues nothing. Inside the ex-coupon
// window (strictly after the detachment date, before payment) the holder has
// lost the upcoming coupon, so the full period fraction is subtracted and the
// result is negative. Settlement exactly on the detachment date is not yet
// ex-coupon.
func AccruedYearFraction(b *Bond, settlementDate time.Time) (float64, error) {
	if b.UnadjustedStartDate().After(settlementDate) {
		return 0, nil
	}
	period, err := b.findPeriod(settlementDate)
	if err != nil {
		return 0, fmt.Errorf("AccruedYearFraction: %w", err)
	}
	accrued := b.yearFraction(period.StartDate, settlementDate)
	if settlementDate.After(period.DetachmentDate) {
		return accrued - period.YearFraction, nil
	}
	return accrued, nil
}

// AccruedInterest returns the accrued interest at the settlement date in
// currency units.
func AccruedInterest(b *Bond, settlementDate time.Time) (float64, error) {
	accrued, err := AccruedYearFraction(b, settlementDate)
	if err != nil {
		return 0, err
	}
	return accrued * b.FixedRate * b.Notional, nil
}

// FactorToNextCoupon returns the fraction of the current coupon period still
// to accrue, scaled by the coupon frequency. It is 0 before the bond starts
// and 1 at a period start.
func FactorToNextCoupon(b *Bond, settlementDate time.Time) (float64, error) {
	if b.Periods[0].StartDate.After(settlementDate) {
		return 0, nil
	}
	idx := couponIndex(b.Periods, settlementDate)
	factorSpot, err := AccruedYearFraction(b, settlementDate)
	if err != nil {
		return 0, err
	}
	factorPeriod := b.Periods[idx].YearFraction
	return (factorPeriod - factorSpot) * float64(b.Frequency), nil
}

// couponIndex returns the index of the first period whose end date is
// strictly after the given date, so ties resolve toward the earlier period.
func couponIndex(periods []CouponPeriod, date time.Time) int {
	for i, p := range periods {
		if p.EndDate.After(date) {
			return i
		}
	}
	return 0
}
