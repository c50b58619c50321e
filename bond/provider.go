package bond

import (
	"sort"
	"time"
)

// DiscountProvider supplies discount factors from a single curve.
//
// Two independent providers are consumed per pricing call: a repo curve for
// funding the settlement amount and an issuer curve for discounting the bond
// cash flows. Implementations must be safe for concurrent reads.
type DiscountProvider interface {
	// DiscountFactor returns the discount factor for a payment on t.
	DiscountFactor(t time.Time) float64
	// RelativeYearFraction returns the curve time from the valuation date
	// to t on the curve's own time axis.
	RelativeYearFraction(t time.Time) float64
	// ZeroRatePointSensitivity returns the derivative of DiscountFactor(t)
	// with respect to the continuously compounded zero rate at t, keyed by
	// the curve identity and date.
	ZeroRatePointSensitivity(t time.Time) PointSensitivity
	// Name identifies the curve inside sensitivity output.
	Name() string
}

// RootFinder solves f(x) = 0 on a bracketed interval.
type RootFinder interface {
	// Bracket widens [lo, hi] until f changes sign across it.
	Bracket(f func(float64) float64, lo, hi float64) (float64, float64, error)
	// Root returns x in [lo, hi] with f(x) = 0 within the finder's tolerance.
	Root(f func(float64) float64, lo, hi float64) (float64, error)
}

// DerivativeRootFinder is implemented by Newton-type finders that consume a
// combined value/derivative evaluation. When the configured finder supports
// it, yield solving starts from the bond's coupon rate and uses the analytic
// derivative path instead of bracketing.
type DerivativeRootFinder interface {
	RootWithDerivative(f func(float64) (value, derivative float64), guess float64) (float64, error)
}

// SensitivityPoint is one derivative contribution: the sensitivity of a
// value to the zero rate of a named curve at a date.
type SensitivityPoint struct {
	Curve string
	Date  time.Time
	Value float64
}

// PointSensitivity accumulates SensitivityPoint contributions.
//
// It is a transient per-call value: combination appends, scaling copies.
// The zero value is an empty sensitivity.
type PointSensitivity struct {
	points []SensitivityPoint
}

// NoSensitivity returns an empty accumulator.
func NoSensitivity() PointSensitivity {
	return PointSensitivity{}
}

// SinglePoint returns an accumulator holding one contribution.
func SinglePoint(curve string, date time.Time, value float64) PointSensitivity {
	return PointSensitivity{points: []SensitivityPoint{{Curve: curve, Date: date, Value: value}}}
}

// CombinedWith returns the union of the two accumulators.
func (s PointSensitivity) CombinedWith(o PointSensitivity) PointSensitivity {
	if len(o.points) == 0 {
		return s
	}
	if len(s.points) == 0 {
		return o
	}
	merged := make([]SensitivityPoint, 0, len(s.points)+len(o.points))
	merged = append(merged, s.points...)
	merged = append(merged, o.points...)
	return PointSensitivity{points: merged}
}

// MultipliedBy returns a copy with every contribution scaled by factor.
func (s PointSensitivity) MultipliedBy(factor float64) PointSensitivity {
	scaled := make([]SensitivityPoint, len(s.points))
	for i, p := range s.points {
		p.Value *= factor
		scaled[i] = p
	}
	return PointSensitivity{points: scaled}
}

// Points returns the raw contributions in insertion order.
func (s PointSensitivity) Points() []SensitivityPoint {
	out := make([]SensitivityPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Normalized merges contributions sharing (curve, date) and sorts the result
// by curve then date. Callers aggregating to curve nodes work from this form.
func (s PointSensitivity) Normalized() []SensitivityPoint {
	type key struct {
		curve string
		date  time.Time
	}
	sums := make(map[key]float64, len(s.points))
	for _, p := range s.points {
		sums[key{p.Curve, p.Date}] += p.Value
	}
	out := make([]SensitivityPoint, 0, len(sums))
	for k, v := range sums {
		out = append(out, SensitivityPoint{Curve: k.curve, Date: k.date, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Curve != out[j].Curve {
			return out[i].Curve < out[j].Curve
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
