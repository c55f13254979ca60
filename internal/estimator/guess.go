package estimator

import (
	"context"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/dimerfit/internal/dataset"
	"github.com/san-kum/dimerfit/internal/models"
	"github.com/san-kum/dimerfit/internal/optim"
)

// SearchGuess returns cfg with its free initial-guess entries replaced by
// the best point of an n-per-axis grid over [lo, hi] on the full dataset.
// Fixed parameters keep their guess.
func SearchGuess(ctx context.Context, ms []dataset.Measurement, cfg Config, lo, hi float64, n int) (Config, error) {
	if n < 2 || !(lo < hi) {
		return Config{}, fmt.Errorf("%w: guess grid needs lo < hi and n >= 2", ErrInvalidConfig)
	}
	e, err := New(ms, cfg)
	if err != nil {
		return Config{}, err
	}

	names := e.model.ParamNames()
	ranges := make([][]float64, len(names))
	for i, name := range names {
		if slices.Contains(e.cfg.Fixed, name) {
			ranges[i] = []float64{e.p0[i]}
			continue
		}
		ranges[i] = floats.Span(make([]float64, n), lo, hi)
	}

	in := models.Inputs{X: e.x, Group: e.group}
	f := func(p []float64) []float64 { return e.model.Predict(in, p) }
	best, _, err := optim.NewGridSearch(names, ranges).Search(ctx, f, e.y)
	if err != nil {
		return Config{}, fmt.Errorf("guess search: %w", err)
	}
	return cfg.WithGuess(best...), nil
}
