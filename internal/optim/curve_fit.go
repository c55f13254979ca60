package optim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultMaxEvals is the default evaluation budget for CurveFit.
const DefaultMaxEvals = 10_000_000

const (
	minLambda    = 1e-12
	maxLambda    = 1e30
	dampingFloor = 1e-12
	// maxStep bounds the largest single-parameter move per iteration, in
	// parameter units (log10 units for the dimer models).
	maxStep = 1.0
)

// Settings controls the Levenberg-Marquardt iteration.
type Settings struct {
	MaxEvals int
	FTol     float64
	XTol     float64
	GTol     float64
}

func DefaultSettings() Settings {
	return Settings{
		MaxEvals: DefaultMaxEvals,
		FTol:     1e-8,
		XTol:     1e-8,
		GTol:     1e-8,
	}
}

// Func evaluates a model at parameter vector p.
type Func func(p []float64) []float64

// Result of a successful fit.
type Result struct {
	Params []float64
	Cost   float64 // half the residual sum of squares
	Evals  int
	Iters  int
}

// CurveFit finds the parameters minimising the squared residual between f(p)
// and y inside the box b, starting from p0. It returns ErrNoConvergence only
// when the evaluation budget runs out.
func CurveFit(f Func, y []float64, p0 []float64, b Bounds, s Settings) (*Result, error) {
	if err := b.Validate(p0); err != nil {
		return nil, err
	}
	if s.MaxEvals <= 0 {
		s = DefaultSettings()
	}

	lm := &levmar{f: f, y: y, b: b, s: s, n: len(p0)}
	return lm.solve(p0)
}

type levmar struct {
	f     Func
	y     []float64
	b     Bounds
	s     Settings
	n     int
	evals int
}

func (lm *levmar) residuals(p []float64) ([]float64, float64, error) {
	lm.evals++
	pred := lm.f(p)
	if len(pred) != len(lm.y) {
		return nil, 0, fmt.Errorf("%w: %d predictions, %d observations", ErrDimensionMismatch, len(pred), len(lm.y))
	}
	r := make([]float64, len(pred))
	floats.SubTo(r, pred, lm.y)
	cost := 0.5 * floats.Dot(r, r)
	if math.IsNaN(cost) {
		cost = math.Inf(1)
	}
	return r, cost, nil
}

// jacobian by forward differences, m x n row-major.
func (lm *levmar) jacobian(x, r []float64) (*mat.Dense, error) {
	m := len(r)
	jac := mat.NewDense(m, lm.n, nil)
	xh := make([]float64, lm.n)
	copy(xh, x)

	for j := 0; j < lm.n; j++ {
		h := 1.4901161193847656e-08 * math.Max(math.Abs(x[j]), 1)
		xh[j] = x[j] + h
		rh, _, err := lm.residuals(xh)
		if err != nil {
			return nil, err
		}
		for i := 0; i < m; i++ {
			jac.Set(i, j, (rh[i]-r[i])/h)
		}
		xh[j] = x[j]
	}
	return jac, nil
}

func (lm *levmar) solve(p0 []float64) (*Result, error) {
	x := make([]float64, lm.n)
	for i, v := range p0 {
		x[i] = lm.b.clip(i, v)
	}

	r, cost, err := lm.residuals(x)
	if err != nil {
		return nil, err
	}
	if math.IsInf(cost, 1) {
		return nil, fmt.Errorf("%w: model is not finite at the initial guess", ErrNoConvergence)
	}

	lambda := 1e-3
	iters := 0

	for lm.evals < lm.s.MaxEvals {
		iters++
		if cost == 0 {
			return lm.result(x, cost, iters), nil
		}

		jac, err := lm.jacobian(x, r)
		if err != nil {
			return nil, err
		}

		rv := mat.NewVecDense(len(r), r)
		var g mat.VecDense
		g.MulVec(jac.T(), rv)

		free := make([]int, 0, lm.n)
		for j := 0; j < lm.n; j++ {
			if !lm.b.pinned(j, x[j], g.AtVec(j)) {
				free = append(free, j)
			}
		}
		if len(free) == 0 {
			return lm.result(x, cost, iters), nil
		}

		if lm.gradientConverged(jac, &g, free, cost) {
			return lm.result(x, cost, iters), nil
		}

		var jtj mat.SymDense
		jtj.SymOuterK(1, jac.T())
		scale := lm.dampingScale(&jtj, free)

		for lm.evals < lm.s.MaxEvals {
			// Damping this large leaves no step that changes x: stationary.
			if lambda > maxLambda {
				return lm.result(x, cost, iters), nil
			}
			step, ok := lm.step(&jtj, &g, free, scale, lambda)
			if !ok {
				lambda *= 10
				continue
			}
			if big := floats.Norm(step, math.Inf(1)); big > maxStep {
				floats.Scale(maxStep/big, step)
			}

			xn := make([]float64, lm.n)
			copy(xn, x)
			for k, j := range free {
				xn[j] = lm.b.clip(j, x[j]+step[k])
			}
			dx := make([]float64, lm.n)
			floats.SubTo(dx, xn, x)
			small := floats.Norm(dx, 2) <= lm.s.XTol*(lm.s.XTol+floats.Norm(x, 2))

			rn, costn, err := lm.residuals(xn)
			if err != nil {
				return nil, err
			}

			if costn < cost {
				done := cost-costn <= lm.s.FTol*cost || small
				x, r, cost = xn, rn, costn
				lambda = math.Max(lambda/10, minLambda)
				if done {
					return lm.result(x, cost, iters), nil
				}
				break
			}

			// No descent even along a vanishing step: x is stationary.
			if small {
				return lm.result(x, cost, iters), nil
			}
			lambda *= 10
		}
	}

	return nil, fmt.Errorf("%w (%d evaluations)", ErrNoConvergence, lm.evals)
}

// gradientConverged applies the MINPACK test: the largest cosine between the
// residual vector and a free Jacobian column is below GTol.
func (lm *levmar) gradientConverged(jac *mat.Dense, g *mat.VecDense, free []int, cost float64) bool {
	rnorm := math.Sqrt(2 * cost)
	worst := 0.0
	for _, j := range free {
		col := mat.Col(nil, j, jac)
		cn := floats.Norm(col, 2)
		if cn == 0 {
			continue
		}
		worst = math.Max(worst, math.Abs(g.AtVec(j))/(cn*rnorm))
	}
	return worst <= lm.s.GTol
}

// dampingScale is diag(A) over the free parameters, floored relative to its
// largest entry so a flat direction is still damped.
func (lm *levmar) dampingScale(jtj *mat.SymDense, free []int) []float64 {
	scale := make([]float64, len(free))
	top := 0.0
	for k, j := range free {
		scale[k] = jtj.At(j, j)
		top = math.Max(top, scale[k])
	}
	floor := math.Max(dampingFloor*top, math.SmallestNonzeroFloat64)
	for k := range scale {
		scale[k] = math.Max(scale[k], floor)
	}
	return scale
}

// step solves (A + lambda*D) d = -g over the free parameters. A
// near-singular system still yields a usable direction; only a failed
// factorisation or a non-finite solution is rejected.
func (lm *levmar) step(jtj *mat.SymDense, g *mat.VecDense, free []int, scale []float64, lambda float64) ([]float64, bool) {
	k := len(free)
	a := mat.NewSymDense(k, nil)
	rhs := mat.NewVecDense(k, nil)
	for p, i := range free {
		for q := p; q < k; q++ {
			a.SetSym(p, q, jtj.At(i, free[q]))
		}
		a.SetSym(p, p, jtj.At(i, i)+lambda*scale[p])
		rhs.SetVec(p, -g.AtVec(i))
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, false
	}
	var d mat.VecDense
	if err := chol.SolveVecTo(&d, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, false
		}
	}
	out := make([]float64, k)
	for i := range out {
		out[i] = d.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, false
		}
	}
	return out, true
}

func (lm *levmar) result(x []float64, cost float64, iters int) *Result {
	out := make([]float64, len(x))
	copy(out, x)
	return &Result{Params: out, Cost: cost, Evals: lm.evals, Iters: iters}
}
