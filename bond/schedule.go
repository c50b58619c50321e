package bond

import (
	"fmt"
	"time"

	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/utils"
)

// ScheduleTemplate describes a fixed coupon bond before its schedule is
// rolled out. Dates are unadjusted; payment dates pick up the business-day
// adjustment of the calendar.
type ScheduleTemplate struct {
	StartDate time.Time
	EndDate   time.Time
	// FixedRate is the annual coupon as a decimal.
	FixedRate       float64
	Notional        float64
	RedemptionRatio float64 // defaults to 1.0 when zero
	Frequency       int
	DayCount        string
	Convention      YieldConvention
	Currency        string
	Calendar        calendar.CalendarID
	// ExCouponDays is the number of business days before the payment date at
	// which the coupon detaches; 0 means no ex-coupon convention.
	ExCouponDays         int
	SettlementOffsetDays int
}

// BuildBond rolls the coupon schedule backward from maturity and returns the
// resolved immutable bond.
//
// Rolling backward keeps the final period anchored on the maturity date; a
// short stub, if any, ends up at the front.
func BuildBond(t ScheduleTemplate) (*Bond, error) {
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return nil, fmt.Errorf("BuildBond: StartDate and EndDate are required")
	}
	if !t.StartDate.Before(t.EndDate) {
		return nil, fmt.Errorf("BuildBond: StartDate must be before EndDate")
	}
	if t.Frequency <= 0 || 12%t.Frequency != 0 {
		return nil, fmt.Errorf("BuildBond: Frequency must divide 12, got %d", t.Frequency)
	}
	if t.Notional <= 0 {
		return nil, fmt.Errorf("BuildBond: Notional must be positive")
	}
	redemptionRatio := t.RedemptionRatio
	if redemptionRatio == 0 {
		redemptionRatio = 1.0
	}

	months := 12 / t.Frequency
	dates := []time.Time{t.EndDate}
	for {
		prev := utils.AddMonth(dates[0], -months)
		if !prev.After(t.StartDate) {
			break
		}
		dates = append([]time.Time{prev}, dates...)
	}
	dates = append([]time.Time{t.StartDate}, dates...)

	periods := make([]CouponPeriod, 0, len(dates)-1)
	for i := 0; i < len(dates)-1; i++ {
		start, end := dates[i], dates[i+1]
		payDate := calendar.Adjust(t.Calendar, end)
		detachDate := payDate
		if t.ExCouponDays > 0 {
			detachDate = calendar.AddBusinessDays(t.Calendar, payDate, -t.ExCouponDays)
		}
		periods = append(periods, CouponPeriod{
			StartDate:      start,
			EndDate:        end,
			PaymentDate:    payDate,
			DetachmentDate: detachDate,
			YearFraction:   utils.YearFraction(start, end, t.DayCount),
			FixedRate:      t.FixedRate,
			HasExCoupon:    t.ExCouponDays > 0,
		})
	}

	b := &Bond{
		Periods: periods,
		Nominal: NominalPayment{
			Date:   t.EndDate,
			Amount: t.Notional * redemptionRatio,
		},
		FixedRate:            t.FixedRate,
		Notional:             t.Notional,
		RedemptionRatio:      redemptionRatio,
		Frequency:            t.Frequency,
		DayCount:             t.DayCount,
		Convention:           t.Convention,
		Currency:             t.Currency,
		SettlementOffsetDays: t.SettlementOffsetDays,
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("BuildBond: %w", err)
	}
	return b, nil
}

// SettlementDate applies the bond's settlement offset in business days to a
// trade date.
func (b *Bond) SettlementDate(tradeDate time.Time, cal calendar.CalendarID) time.Time {
	return calendar.AddBusinessDays(cal, tradeDate, b.SettlementOffsetDays)
}
