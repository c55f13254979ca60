package estimator

import (
	"fmt"
	"math"
	"slices"

	"github.com/san-kum/dimerfit/internal/bootstrap"
	"github.com/san-kum/dimerfit/internal/dataset"
	"github.com/san-kum/dimerfit/internal/models"
	"github.com/san-kum/dimerfit/internal/optim"
	"github.com/san-kum/dimerfit/internal/stats"
)

const (
	DefaultGridPoints = 100
	DefaultInterval   = 95.0
)

// Config is the immutable description of one analysis. Methods return
// modified copies.
type Config struct {
	Kind   models.Kind
	Region dataset.Region
	Log    bool

	// Guess is the initial parameter vector; nil selects DefaultGuess.
	Guess []float64
	// Fixed names parameters held at their initial guess.
	Fixed []string
	// Groups names genotype 0 and genotype 1 for paired kinds. Empty means
	// the two distinct labels in sorted order.
	Groups []string

	Iterations int
	GridPoints int
	Interval   float64
	Seed       int64
	Workers    int
	Fit        optim.Settings
}

func DefaultConfig(kind models.Kind) Config {
	return Config{
		Kind:       kind,
		Region:     dataset.RegionPost,
		Iterations: bootstrap.DefaultIterations,
		GridPoints: DefaultGridPoints,
		Interval:   DefaultInterval,
		Seed:       12345,
		Workers:    1,
		Fit:        optim.DefaultSettings(),
	}
}

// DefaultGuess returns the initial guess used when Config.Guess is nil.
func DefaultGuess(kind models.Kind) []float64 {
	switch kind {
	case models.KindUnpaired:
		return []float64{15, 5}
	case models.KindPairedScaled:
		return []float64{15, 15, 5, 0}
	default:
		return []float64{15, 15, 5}
	}
}

// Fix returns a copy of c with the named parameter held fixed.
func (c Config) Fix(param string) Config {
	out := c.clone()
	if !slices.Contains(out.Fixed, param) {
		out.Fixed = append(out.Fixed, param)
	}
	return out
}

// FixAffinity fixes the affinity of genotype group g (0 or 1).
func (c Config) FixAffinity(g int) Config {
	if !c.Kind.Paired() {
		return c.Fix("ka")
	}
	return c.Fix(fmt.Sprintf("ka%d", g+1))
}

// WithGuess returns a copy of c with initial guess p0.
func (c Config) WithGuess(p0 ...float64) Config {
	out := c.clone()
	out.Guess = slices.Clone(p0)
	return out
}

func (c Config) clone() Config {
	out := c
	out.Guess = slices.Clone(c.Guess)
	out.Fixed = slices.Clone(c.Fixed)
	out.Groups = slices.Clone(c.Groups)
	return out
}

// Model builds the model selected by Kind and Log.
func (c Config) Model() (models.Model, error) {
	return models.New(c.Kind, c.Log)
}

// InitialGuess returns the guess the fit starts from.
func (c Config) InitialGuess() []float64 {
	if c.Guess == nil {
		return DefaultGuess(c.Kind)
	}
	return slices.Clone(c.Guess)
}

// Bounds derives the per-parameter bounds: unbounded except for fixed
// parameters.
func (c Config) Bounds() (optim.Bounds, error) {
	m, err := c.Model()
	if err != nil {
		return optim.Bounds{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	names := m.ParamNames()
	p0 := c.InitialGuess()
	if len(p0) != len(names) {
		return optim.Bounds{}, fmt.Errorf("%w: %s takes %d parameters %v, guess has %d", ErrInvalidConfig, m.Name(), len(names), names, len(p0))
	}

	b := optim.Unbounded(len(names))
	for _, f := range c.Fixed {
		i := slices.Index(names, f)
		if i < 0 {
			return optim.Bounds{}, fmt.Errorf("%w: cannot fix %q, %s has parameters %v", ErrInvalidConfig, f, m.Name(), names)
		}
		b = b.Fix(i, p0[i])
	}
	return b, nil
}

// Validate checks every field once; New calls it.
func (c Config) Validate() error {
	if _, err := dataset.ParseRegion(string(c.Region)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	}
	if c.GridPoints < 2 {
		return fmt.Errorf("%w: grid needs at least 2 points, got %d", ErrInvalidConfig, c.GridPoints)
	}
	if !stats.ValidInterval(c.Interval) {
		return fmt.Errorf("%w: interval must be in (0, 100), got %v", ErrInvalidConfig, c.Interval)
	}
	for _, v := range c.Guess {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: initial guess %v is not finite", ErrInvalidConfig, c.Guess)
		}
	}
	if c.Kind.Paired() && len(c.Groups) != 0 {
		if len(c.Groups) != 2 || c.Groups[0] == c.Groups[1] {
			return fmt.Errorf("%w: paired analysis needs two distinct group labels, got %v", ErrInvalidConfig, c.Groups)
		}
	}
	_, err := c.Bounds()
	return err
}
