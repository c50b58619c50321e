// Package solver provides single-variable root finding for pricing
// inversions: bracket expansion, Brent's method and Newton-Raphson with an
// analytic derivative.
package solver

import (
	"errors"
	"fmt"
	"math"
)

const (
	defaultTolerance   = 1e-12
	defaultMaxIter     = 100
	bracketGrowth      = 1.6
	maxBracketAttempts = 50
)

var (
	// ErrNoConvergence is returned when the iteration cap is reached before
	// the tolerance is met. It is fatal for the call, never retried.
	ErrNoConvergence = errors.New("root finder did not converge")
	// ErrNoBracket is returned when no sign change can be found.
	ErrNoBracket = errors.New("could not bracket a root")
)

// bracket expands [lo, hi] geometrically, moving the end with the smaller
// residual outward, until f changes sign across the interval.
func bracket(f func(float64) float64, lo, hi float64) (float64, float64, error) {
	if lo == hi {
		return 0, 0, fmt.Errorf("bracket: empty starting interval at %g", lo)
	}
	fLo := f(lo)
	fHi := f(hi)
	for i := 0; i < maxBracketAttempts; i++ {
		if fLo*fHi <= 0 {
			return lo, hi, nil
		}
		if math.Abs(fLo) < math.Abs(fHi) {
			lo += bracketGrowth * (lo - hi)
			fLo = f(lo)
		} else {
			hi += bracketGrowth * (hi - lo)
			fHi = f(hi)
		}
	}
	return 0, 0, fmt.Errorf("%w in [%g, %g] after %d expansions", ErrNoBracket, lo, hi, maxBracketAttempts)
}

// Brent is a derivative-free root finder combining bisection, secant and
// inverse quadratic interpolation. The zero value uses default tolerances.
type Brent struct {
	Tolerance float64
	MaxIter   int
}

func (b Brent) tolerance() float64 {
	if b.Tolerance > 0 {
		return b.Tolerance
	}
	return defaultTolerance
}

func (b Brent) maxIter() int {
	if b.MaxIter > 0 {
		return b.MaxIter
	}
	return defaultMaxIter
}

// Bracket widens [lo, hi] until f changes sign across it.
func (b Brent) Bracket(f func(float64) float64, lo, hi float64) (float64, float64, error) {
	return bracket(f, lo, hi)
}

// Root returns x in [lo, hi] with f(x) = 0 within the tolerance. The
// interval must bracket a root.
func (b Brent) Root(f func(float64) float64, lo, hi float64) (float64, error) {
	xa, xb := lo, hi
	fa, fb := f(xa), f(xb)
	if fa*fb > 0 {
		return 0, fmt.Errorf("Brent: interval [%g, %g] does not bracket a root", lo, hi)
	}
	xc, fc := xa, fa
	var d, e float64
	tol := b.tolerance()
	for i := 0; i < b.maxIter(); i++ {
		if (fb > 0 && fc > 0) || (fb < 0 && fc < 0) {
			xc, fc = xa, fa
			d = xb - xa
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			xa, xb, xc = xb, xc, xb
			fa, fb, fc = fb, fc, fb
		}
		tol1 := 2*math.SmallestNonzeroFloat64*math.Abs(xb) + 0.5*tol
		xm := 0.5 * (xc - xb)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return xb, nil
		}
		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Attempt inverse quadratic interpolation.
			s := fb / fa
			var p, q float64
			if xa == xc {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (xb-xa)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}
		xa, fa = xb, fb
		if math.Abs(d) > tol1 {
			xb += d
		} else {
			xb += math.Copysign(tol1, xm)
		}
		fb = f(xb)
	}
	return 0, fmt.Errorf("Brent: %w after %d iterations", ErrNoConvergence, b.maxIter())
}

// NewtonRaphson finds roots by Newton steps. Root falls back to bisection
// safeguarding inside the bracket; RootWithDerivative consumes a combined
// value/derivative function and an initial guess.
type NewtonRaphson struct {
	Tolerance float64
	MaxIter   int
}

func (n NewtonRaphson) tolerance() float64 {
	if n.Tolerance > 0 {
		return n.Tolerance
	}
	return defaultTolerance
}

func (n NewtonRaphson) maxIter() int {
	if n.MaxIter > 0 {
		return n.MaxIter
	}
	return defaultMaxIter
}

// Bracket widens [lo, hi] until f changes sign across it.
func (n NewtonRaphson) Bracket(f func(float64) float64, lo, hi float64) (float64, float64, error) {
	return bracket(f, lo, hi)
}

// Root solves f(x) = 0 inside the bracket using secant-style Newton steps
// with a bisection safeguard when a step leaves the interval.
func (n NewtonRaphson) Root(f func(float64) float64, lo, hi float64) (float64, error) {
	fLo, fHi := f(lo), f(hi)
	if fLo*fHi > 0 {
		return 0, fmt.Errorf("NewtonRaphson: interval [%g, %g] does not bracket a root", lo, hi)
	}
	if fLo == 0 {
		return lo, nil
	}
	if fHi == 0 {
		return hi, nil
	}
	x := 0.5 * (lo + hi)
	tol := n.tolerance()
	for i := 0; i < n.maxIter(); i++ {
		fx := f(x)
		if math.Abs(fx) < tol {
			return x, nil
		}
		// Maintain the bracket.
		if fx*fLo < 0 {
			hi = x
		} else {
			lo, fLo = x, fx
		}
		// Secant step from the bracket ends, bisection when degenerate.
		fh := f(hi)
		next := x
		if fh != fx {
			next = x - fx*(hi-x)/(fh-fx)
		}
		if next <= lo || next >= hi {
			next = 0.5 * (lo + hi)
		}
		if math.Abs(next-x) < tol {
			return next, nil
		}
		x = next
	}
	return 0, fmt.Errorf("NewtonRaphson: %w after %d iterations", ErrNoConvergence, n.maxIter())
}

// RootWithDerivative solves f(x) = 0 by Newton-Raphson from the initial
// guess using the analytic derivative returned alongside each value.
func (n NewtonRaphson) RootWithDerivative(f func(float64) (float64, float64), guess float64) (float64, error) {
	x := guess
	tol := n.tolerance()
	for i := 0; i < n.maxIter(); i++ {
		fx, dfx := f(x)
		if math.Abs(fx) < tol {
			return x, nil
		}
		if math.Abs(dfx) < 1e-15 {
			return 0, fmt.Errorf("NewtonRaphson: derivative vanished at iteration %d", i)
		}
		step := fx / dfx
		x -= step
		if math.Abs(step) < tol {
			return x, nil
		}
	}
	return 0, fmt.Errorf("NewtonRaphson: %w after %d iterations", ErrNoConvergence, n.maxIter())
}
