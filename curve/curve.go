// Package curve provides a zero-rate discount curve implementing the
// bond.DiscountProvider contract, with log-linear discount factor
// interpolation between nodes.
package curve

import (
	"math"
	"time"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/utils"
)

// curveDayCount is the time axis used for zero rates and interpolation,
// matching the market convention for discount curve time axes.
const curveDayCount = "ACT/365F"

// ZeroCurve holds continuously compounded zero rates at node dates.
//
// Discount factors between nodes are interpolated log-linearly (flat
// forward); beyond the outermost nodes the nearest boundary pair
// extrapolates. A ZeroCurve is immutable and safe for concurrent reads.
type ZeroCurve struct {
	name      string
	valuation time.Time
	dates     []time.Time
	zeros     map[time.Time]float64
	flatRate  float64
	flat      bool
}

// NewZeroCurve builds a curve from node dates to continuously compounded
// zero rates (decimal).
func NewZeroCurve(name string, valuation time.Time, nodes map[time.Time]float64) *ZeroCurve {
	dates := make([]time.Time, 0, len(nodes))
	zeros := make(map[time.Time]float64, len(nodes))
	for d, z := range nodes {
		dates = append(dates, d)
		zeros[d] = z
	}
	utils.SortDates(dates)
	return &ZeroCurve{name: name, valuation: valuation, dates: dates, zeros: zeros}
}

// Flat builds a curve with the same zero rate at every maturity.
func Flat(name string, valuation time.Time, rate float64) *ZeroCurve {
	return &ZeroCurve{name: name, valuation: valuation, flatRate: rate, flat: true}
}

// Name identifies the curve inside sensitivity output.
func (c *ZeroCurve) Name() string {
	return c.name
}

// Valuation returns the curve's valuation date.
func (c *ZeroCurve) Valuation() time.Time {
	return c.valuation
}

// RelativeYearFraction returns curve time from the valuation date to t.
func (c *ZeroCurve) RelativeYearFraction(t time.Time) float64 {
	return utils.YearFraction(c.valuation, t, curveDayCount)
}

// DiscountFactor returns the discount factor for a payment on t.
func (c *ZeroCurve) DiscountFactor(t time.Time) float64 {
	yf := c.RelativeYearFraction(t)
	if yf <= 0 {
		return 1.0
	}
	return math.Exp(-c.zeroRate(t, yf) * yf)
}

// ZeroRatePointSensitivity returns the derivative of DiscountFactor(t) with
// respect to the zero rate at t, keyed by the curve name and date.
func (c *ZeroCurve) ZeroRatePointSensitivity(t time.Time) bond.PointSensitivity {
	yf := c.RelativeYearFraction(t)
	if yf <= 0 {
		return bond.NoSensitivity()
	}
	return bond.SinglePoint(c.name, t, -yf*c.DiscountFactor(t))
}

// Bumped returns a copy of the curve with the zero rate at the given node
// shifted by bump. Bumping a date that is not a node adds it as one.
func (c *ZeroCurve) Bumped(node time.Time, bump float64) *ZeroCurve {
	if c.flat {
		return Flat(c.name, c.valuation, c.flatRate+bump)
	}
	nodes := make(map[time.Time]float64, len(c.zeros)+1)
	for d, z := range c.zeros {
		nodes[d] = z
	}
	if _, ok := nodes[node]; ok {
		nodes[node] += bump
	} else {
		yf := c.RelativeYearFraction(node)
		nodes[node] = c.zeroRate(node, yf) + bump
	}
	return NewZeroCurve(c.name, c.valuation, nodes)
}

// zeroRate returns the continuously compounded zero rate for t, with yf the
// curve time to t.
func (c *ZeroCurve) zeroRate(t time.Time, yf float64) float64 {
	if c.flat {
		return c.flatRate
	}
	if z, ok := c.zeros[t]; ok {
		return z
	}
	if len(c.dates) == 1 {
		return c.zeros[c.dates[0]]
	}
	d1, d2 := utils.AdjacentDates(t, c.dates)
	t1 := c.RelativeYearFraction(d1)
	t2 := c.RelativeYearFraction(d2)
	df1 := math.Exp(-c.zeros[d1] * t1)
	df2 := math.Exp(-c.zeros[d2] * t2)
	if t2 == t1 {
		return c.zeros[d1]
	}
	// Log-linear on discount factors: constant forward between nodes.
	forward := math.Log(df1/df2) / (t2 - t1)
	df := df1 * math.Exp(-forward*(yf-t1))
	return -math.Log(df) / yf
}
