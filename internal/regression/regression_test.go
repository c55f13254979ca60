package regression

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/dimerfit/internal/bootstrap"
	"github.com/san-kum/dimerfit/internal/dataset"
)

func powerLaw(rng *rand.Rand, n int, a, b, noise float64) []dataset.Measurement {
	ms := make([]dataset.Measurement, n)
	for i := range ms {
		c := math.Pow(10, -1+2*float64(i)/float64(n-1))
		m := math.Pow(10, b) * math.Pow(c, a) * math.Pow(10, noise*rng.NormFloat64())
		ms[i] = dataset.Measurement{Cyt: c, MemPost: m, MemTot: m}
	}
	return ms
}

func TestFitLineExact(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{1, 3, 5, 7}

	l, err := FitLine(x, y)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if math.Abs(l.Slope-2) > 1e-12 || math.Abs(l.Intercept-1) > 1e-12 {
		t.Errorf("expected slope 2 intercept 1, got %v %v", l.Slope, l.Intercept)
	}
	if got := l.At(10); math.Abs(got-21) > 1e-12 {
		t.Errorf("expected 21, got %v", got)
	}
}

func TestFitLineDegenerate(t *testing.T) {
	_, err := FitLine([]float64{2, 2, 2}, []float64{1, 2, 3})
	if !errors.Is(err, ErrDegenerate) {
		t.Errorf("expected ErrDegenerate, got %v", err)
	}
	if _, err := FitLine([]float64{1}, []float64{1}); err == nil {
		t.Error("expected error for a single point")
	}
}

func TestEstimateRecoversExponent(t *testing.T) {
	ms := powerLaw(rand.New(rand.NewSource(1)), 60, 1.5, -0.3, 0.02)
	e := bootstrap.NewSeeded(2, bootstrap.WithIterations(300))

	res, err := Estimate(context.Background(), e, ms, DefaultConfig())
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}

	if math.Abs(res.Line.Slope-1.5) > 0.05 {
		t.Errorf("expected exponent near 1.5, got %v", res.Line.Slope)
	}
	if len(res.Exponents) != 300 {
		t.Errorf("expected 300 exponents, got %d", len(res.Exponents))
	}
	lo, hi := res.ExponentInterval()
	if lo > res.Line.Slope || hi < res.Line.Slope {
		t.Errorf("expected interval [%v, %v] to contain %v", lo, hi, res.Line.Slope)
	}

	if len(res.X) != 100 || math.Abs(res.X[0]+1) > 1e-9 || math.Abs(res.X[99]-1) > 1e-9 {
		t.Errorf("expected grid over [-1, 1], got %v..%v (%d points)", res.X[0], res.X[len(res.X)-1], len(res.X))
	}
	for i := range res.X {
		if res.Lower[i] > res.Upper[i] {
			t.Fatalf("band inverted at %d: %v > %v", i, res.Lower[i], res.Upper[i])
		}
	}
}

func TestEstimateCustomRange(t *testing.T) {
	ms := powerLaw(rand.New(rand.NewSource(3)), 20, 1, 0, 0.01)
	cfg := DefaultConfig()
	cfg.XMin, cfg.XMax, cfg.GridPoints = -2, 2, 5

	res, err := Estimate(context.Background(), bootstrap.NewSeeded(1, bootstrap.WithIterations(20)), ms, cfg)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	want := []float64{-2, -1, 0, 1, 2}
	for i, x := range res.X {
		if math.Abs(x-want[i]) > 1e-12 {
			t.Errorf("grid[%d]: expected %v, got %v", i, want[i], x)
		}
	}
}

func TestEstimateRejectsBadInput(t *testing.T) {
	ms := powerLaw(rand.New(rand.NewSource(3)), 10, 1, 0, 0.01)
	ms[2].MemPost = -1

	_, err := Estimate(context.Background(), bootstrap.NewSeeded(1), ms, DefaultConfig())
	if !errors.Is(err, dataset.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}
