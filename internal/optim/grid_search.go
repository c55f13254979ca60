package optim

import (
	"context"
	"math"
)

// GridSearch evaluates every combination of candidate parameter values and
// keeps the one with the smallest squared residual. It is used to seed
// CurveFit when no sensible initial guess is known.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search returns the best parameter vector, ordered like paramNames, and its
// residual sum of squares. Non-finite evaluations are skipped.
func (g *GridSearch) Search(ctx context.Context, f Func, y []float64) ([]float64, float64, error) {
	best := math.Inf(1)
	var bestParams []float64

	current := make([]float64, len(g.paramNames))
	if err := g.searchRecursive(ctx, 0, current, f, y, &best, &bestParams); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoConvergence
	}

	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current []float64,
	f Func,
	y []float64,
	best *float64,
	bestParams *[]float64,
) error {
	if depth == len(g.paramNames) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pred := f(current)
		if len(pred) != len(y) {
			return ErrDimensionMismatch
		}
		sse := 0.0
		for i := range y {
			d := pred[i] - y[i]
			sse += d * d
		}
		if math.IsNaN(sse) {
			return nil
		}

		if sse < *best {
			*best = sse
			*bestParams = append((*bestParams)[:0], current...)
		}
		return nil
	}

	for _, val := range g.ranges[depth] {
		current[depth] = val
		if err := g.searchRecursive(ctx, depth+1, current, f, y, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
