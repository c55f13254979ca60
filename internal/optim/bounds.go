package optim

import (
	"fmt"
	"math"
)

// FixEpsilon is the half-width of the interval a fixed parameter is held in.
const FixEpsilon = 1e-8

// Bounds holds per-parameter box constraints.
type Bounds struct {
	Lower []float64
	Upper []float64
}

// Unbounded returns (-Inf, +Inf) bounds for n parameters.
func Unbounded(n int) Bounds {
	b := Bounds{Lower: make([]float64, n), Upper: make([]float64, n)}
	for i := 0; i < n; i++ {
		b.Lower[i] = math.Inf(-1)
		b.Upper[i] = math.Inf(1)
	}
	return b
}

// Fix returns a copy of b with parameter i collapsed to [v-FixEpsilon, v+FixEpsilon].
// The parameter stays in the vector so its shape does not depend on which
// parameters are fixed.
func (b Bounds) Fix(i int, v float64) Bounds {
	out := b.Clone()
	out.Lower[i] = v - FixEpsilon
	out.Upper[i] = v + FixEpsilon
	return out
}

func (b Bounds) Clone() Bounds {
	out := Bounds{Lower: make([]float64, len(b.Lower)), Upper: make([]float64, len(b.Upper))}
	copy(out.Lower, b.Lower)
	copy(out.Upper, b.Upper)
	return out
}

func (b Bounds) Len() int { return len(b.Lower) }

// Validate checks shape, ordering and that p0 lies inside the box.
func (b Bounds) Validate(p0 []float64) error {
	if len(b.Lower) != len(b.Upper) || len(b.Lower) != len(p0) {
		return fmt.Errorf("%w: %d lower, %d upper, %d params", ErrBadBounds, len(b.Lower), len(b.Upper), len(p0))
	}
	for i := range p0 {
		if math.IsNaN(b.Lower[i]) || math.IsNaN(b.Upper[i]) || b.Lower[i] >= b.Upper[i] {
			return fmt.Errorf("%w: param %d has [%g, %g]", ErrBadBounds, i, b.Lower[i], b.Upper[i])
		}
		if math.IsNaN(p0[i]) || p0[i] < b.Lower[i] || p0[i] > b.Upper[i] {
			return fmt.Errorf("%w: initial guess %g for param %d outside [%g, %g]", ErrBadBounds, p0[i], i, b.Lower[i], b.Upper[i])
		}
	}
	return nil
}

func (b Bounds) clip(i int, v float64) float64 {
	return math.Min(math.Max(v, b.Lower[i]), b.Upper[i])
}

// pinned reports whether parameter i is held where it is: its interval is
// narrower than a finite-difference step, or it sits on a bound and the
// gradient g pushes it outward.
func (b Bounds) pinned(i int, x, g float64) bool {
	if b.Upper[i]-b.Lower[i] < 1e-6 {
		return true
	}
	if x <= b.Lower[i] && g > 0 {
		return true
	}
	return x >= b.Upper[i] && g < 0
}
