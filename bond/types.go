package bond

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/bondlib/utils"
)

var (
	// ErrUnsupportedConvention is returned when a yield convention (or a
	// convention/operation combination) has no defined formula.
	ErrUnsupportedConvention = errors.New("unsupported yield convention")
	// ErrSettlementOutOfRange is returned when a settlement date cannot be
	// located inside the bond's coupon schedule.
	ErrSettlementOutOfRange = errors.New("settlement date outside bond schedule")
)

// YieldConvention selects the national quotation convention used to convert
// between price and yield. The set is closed: every convention-dispatched
// operation enumerates these values and fails on anything else.
type YieldConvention string

const (
	USStreet  YieldConvention = "US-STREET"
	GBBumpDMO YieldConvention = "GB-BUMP-DMO"
	DEBonds   YieldConvention = "DE-BONDS"
	JPSimple  YieldConvention = "JP-SIMPLE"
)

// Compounding selects how a z-spread shifts the issuer curve's zero rates.
type Compounding int

const (
	// Continuous adds the spread to continuously compounded zero rates.
	Continuous Compounding = iota
	// Periodic adds the spread to periodically compounded zero rates; the
	// frequency is supplied alongside as periods per year.
	Periodic
)

// CouponPeriod is one accrual period of a fixed coupon bond.
//
// Dates are unadjusted accrual boundaries; PaymentDate carries the
// business-day adjustment. DetachmentDate equals PaymentDate unless the bond
// trades ex-coupon, in which case the holder loses the coupon after it.
// Periods are owned by their Bond and never mutated after construction.
type CouponPeriod struct {
	StartDate      time.Time
	EndDate        time.Time
	PaymentDate    time.Time
	DetachmentDate time.Time
	YearFraction   float64
	FixedRate      float64
	HasExCoupon    bool
}

// Amount returns the coupon cash flow of the period in currency units.
func (p CouponPeriod) Amount(notional float64) float64 {
	return p.FixedRate * p.YearFraction * notional
}

// NominalPayment is the redemption cash flow of the bond.
type NominalPayment struct {
	Date   time.Time
	Amount float64
}

// Bond is a resolved fixed coupon bond: an ordered, contiguous coupon
// schedule plus the redemption payment and quotation conventions.
//
// A Bond is immutable for the lifetime of a pricing run; all pricing
// functions in this package are pure and safe for concurrent use.
type Bond struct {
	// Periods are the coupon periods in date order. The last period's end
	// date equals the nominal payment date.
	Periods []CouponPeriod
	Nominal NominalPayment
	// FixedRate is the annual coupon rate as a decimal (0.04625 == 4.625%).
	FixedRate float64
	Notional  float64
	// RedemptionRatio scales the redemption relative to notional (usually 1).
	RedemptionRatio float64
	// Frequency is the number of coupons per year.
	Frequency int
	// DayCount names the year-fraction convention (see utils.YearFraction).
	DayCount   string
	Convention YieldConvention
	// Currency is the ISO code; AUD and CAD select a dedicated annualization
	// in the single-coupon yield inversion.
	Currency             string
	SettlementOffsetDays int
}

// UnadjustedStartDate returns the start of the first accrual period.
func (b *Bond) UnadjustedStartDate() time.Time {
	return b.Periods[0].StartDate
}

// UnadjustedEndDate returns the end of the last accrual period (maturity).
func (b *Bond) UnadjustedEndDate() time.Time {
	return b.Periods[len(b.Periods)-1].EndDate
}

func (b *Bond) yearFraction(start, end time.Time) float64 {
	return utils.YearFraction(start, end, b.DayCount)
}

// findPeriod locates the coupon period containing the date
// (start inclusive, end exclusive).
func (b *Bond) findPeriod(date time.Time) (CouponPeriod, error) {
	for _, p := range b.Periods {
		if !date.Before(p.StartDate) && date.Before(p.EndDate) {
			return p, nil
		}
	}
	return CouponPeriod{}, fmt.Errorf("%w: %s", ErrSettlementOutOfRange, date.Format("2006-01-02"))
}

// Validate checks the structural invariants of the bond.
func (b *Bond) Validate() error {
	if len(b.Periods) == 0 {
		return fmt.Errorf("Validate: bond has no coupon periods")
	}
	if b.Notional <= 0 {
		return fmt.Errorf("Validate: Notional must be positive")
	}
	if b.Frequency <= 0 {
		return fmt.Errorf("Validate: Frequency must be positive")
	}
	for i := 1; i < len(b.Periods); i++ {
		if !b.Periods[i].StartDate.Equal(b.Periods[i-1].EndDate) {
			return fmt.Errorf("Validate: periods %d and %d are not contiguous", i-1, i)
		}
	}
	for i, p := range b.Periods {
		if !p.StartDate.Before(p.EndDate) {
			return fmt.Errorf("Validate: period %d has non-positive accrual span", i)
		}
		if p.DetachmentDate.After(p.PaymentDate) {
			return fmt.Errorf("Validate: period %d detaches after payment", i)
		}
	}
	if !b.UnadjustedEndDate().Equal(b.Nominal.Date) {
		return fmt.Errorf("Validate: last period end %s does not match nominal payment date %s",
			b.UnadjustedEndDate().Format("2006-01-02"), b.Nominal.Date.Format("2006-01-02"))
	}
	return nil
}
