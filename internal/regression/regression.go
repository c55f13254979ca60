// Package regression estimates the power-law exponent relating membrane to
// cytoplasmic concentration, log10(mem) = a*log10(cyt) + b, with bootstrap
// bands on the fitted line.
package regression

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/dimerfit/internal/bootstrap"
	"github.com/san-kum/dimerfit/internal/dataset"
	"github.com/san-kum/dimerfit/internal/stats"
)

// ErrDegenerate indicates a sample whose x values do not vary.
var ErrDegenerate = errors.New("regression: x values do not vary")

type Config struct {
	Region     dataset.Region
	GridPoints int
	Interval   float64
	// XMin and XMax bound the log10 grid. NaN selects the observed range.
	XMin, XMax float64
}

func DefaultConfig() Config {
	return Config{
		Region:     dataset.RegionPost,
		GridPoints: 100,
		Interval:   95,
		XMin:       math.NaN(),
		XMax:       math.NaN(),
	}
}

// Line is one ordinary least-squares fit.
type Line struct {
	Slope     float64
	Intercept float64
}

func (l Line) At(x float64) float64 { return l.Intercept + l.Slope*x }

// Eval evaluates the line over xs.
func (l Line) Eval(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = l.At(x)
	}
	return out
}

// FitLine regresses y on x.
func FitLine(x, y []float64) (Line, error) {
	if len(x) < 2 || len(x) != len(y) {
		return Line{}, fmt.Errorf("regression: need at least 2 paired points, got %d and %d", len(x), len(y))
	}
	if floats.Min(x) == floats.Max(x) {
		return Line{}, ErrDegenerate
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return Line{Slope: beta, Intercept: alpha}, nil
}

type Result struct {
	Line Line
	// Exponents holds the slope of every bootstrap refit.
	Exponents []float64
	X         []float64
	Y         []float64
	Lower     []float64
	Upper     []float64
	Interval  float64
}

// ExponentInterval returns the percentile interval of the bootstrap slopes.
func (r *Result) ExponentInterval() (float64, float64) {
	return stats.Interval(r.Exponents, r.Interval)
}

// Estimate fits the log-log line to ms and bootstraps rows jointly. The
// number of iterations and the random source come from e.
func Estimate(ctx context.Context, e *bootstrap.Engine, ms []dataset.Measurement, cfg Config) (*Result, error) {
	if !stats.ValidInterval(cfg.Interval) {
		return nil, fmt.Errorf("regression: interval must be in (0, 100), got %v", cfg.Interval)
	}
	if cfg.GridPoints < 2 {
		return nil, fmt.Errorf("regression: grid needs at least 2 points, got %d", cfg.GridPoints)
	}
	if err := dataset.Validate(ms, cfg.Region); err != nil {
		return nil, err
	}

	x := make([]float64, len(ms))
	y := make([]float64, len(ms))
	for i, m := range ms {
		x[i] = math.Log10(m.Cyt)
		y[i] = math.Log10(m.Membrane(cfg.Region))
	}

	full, err := FitLine(x, y)
	if err != nil {
		return nil, err
	}

	lo, hi := cfg.XMin, cfg.XMax
	if math.IsNaN(lo) {
		lo = floats.Min(x)
	}
	if math.IsNaN(hi) {
		hi = floats.Max(x)
	}
	grid := floats.Span(make([]float64, cfg.GridPoints), lo, hi)

	lines, err := bootstrap.Bootstrap(ctx, e, []bootstrap.Dataset{{x, y}}, func(d []bootstrap.Dataset) (Line, error) {
		return FitLine(d[0][0], d[0][1])
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Line:      full,
		Exponents: make([]float64, len(lines)),
		X:         grid,
		Y:         full.Eval(grid),
		Interval:  cfg.Interval,
	}
	curves := make([][]float64, len(lines))
	for i, l := range lines {
		res.Exponents[i] = l.Slope
		curves[i] = l.Eval(grid)
	}
	res.Lower, res.Upper, err = stats.Bands(curves, cfg.Interval)
	if err != nil {
		return nil, err
	}
	return res, nil
}
