package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrentRoot(t *testing.T) {
	t.Parallel()

	t.Run("cos x equals x", func(t *testing.T) {
		t.Parallel()
		f := func(x float64) float64 { return math.Cos(x) - x }
		root, err := Brent{}.Root(f, 0, 1)
		require.NoError(t, err)
		assert.InDelta(t, 0.7390851332151607, root, 1e-10)
	})
	t.Run("cubic", func(t *testing.T) {
		t.Parallel()
		f := func(x float64) float64 { return x*x*x - x - 2 }
		root, err := Brent{}.Root(f, 1, 2)
		require.NoError(t, err)
		assert.InDelta(t, 0, f(root), 1e-10)
	})
	t.Run("rejects non bracketing interval", func(t *testing.T) {
		t.Parallel()
		f := func(x float64) float64 { return x*x + 1 }
		_, err := Brent{}.Root(f, -1, 1)
		assert.Error(t, err)
	})
}

func TestBracketExpansion(t *testing.T) {
	t.Parallel()

	t.Run("expands to a sign change", func(t *testing.T) {
		t.Parallel()
		f := func(x float64) float64 { return x*x - 4 }
		lo, hi, err := Brent{}.Bracket(f, 3, 5)
		require.NoError(t, err)
		assert.True(t, f(lo)*f(hi) <= 0)
		root, err := Brent{}.Root(f, lo, hi)
		require.NoError(t, err)
		assert.InDelta(t, 2, math.Abs(root), 1e-9)
	})
	t.Run("no root", func(t *testing.T) {
		t.Parallel()
		f := func(x float64) float64 { return x*x + 1 }
		_, _, err := Brent{}.Bracket(f, -1, 1)
		assert.ErrorIs(t, err, ErrNoBracket)
	})
	t.Run("empty interval", func(t *testing.T) {
		t.Parallel()
		f := func(x float64) float64 { return x }
		_, _, err := Brent{}.Bracket(f, 2, 2)
		assert.Error(t, err)
	})
}

func TestNewtonRaphsonRoot(t *testing.T) {
	t.Parallel()

	t.Run("bracketed", func(t *testing.T) {
		t.Parallel()
		f := func(x float64) float64 { return x*x*x - x - 2 }
		root, err := NewtonRaphson{}.Root(f, 1, 2)
		require.NoError(t, err)
		assert.InDelta(t, 0, f(root), 1e-9)
	})
	t.Run("rejects non bracketing interval", func(t *testing.T) {
		t.Parallel()
		f := func(x float64) float64 { return x*x + 1 }
		_, err := NewtonRaphson{}.Root(f, -1, 1)
		assert.Error(t, err)
	})
}

func TestNewtonRaphsonRootWithDerivative(t *testing.T) {
	t.Parallel()

	t.Run("sqrt two", func(t *testing.T) {
		t.Parallel()
		f := func(x float64) (float64, float64) { return x*x - 2, 2 * x }
		root, err := NewtonRaphson{}.RootWithDerivative(f, 1)
		require.NoError(t, err)
		assert.InDelta(t, math.Sqrt2, root, 1e-10)
	})
	t.Run("vanishing derivative", func(t *testing.T) {
		t.Parallel()
		f := func(x float64) (float64, float64) { return 1, 0 }
		_, err := NewtonRaphson{}.RootWithDerivative(f, 0)
		assert.Error(t, err)
	})
}
