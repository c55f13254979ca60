package stats

import (
	"math"
	"testing"
)

func TestPercentileMatchesLinearInterpolation(t *testing.T) {
	xs := []float64{4, 1, 3, 2}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{25, 1.75},
		{50, 2.5},
		{2.5, 1.075},
		{97.5, 3.925},
		{100, 4},
	}

	for _, tt := range tests {
		if got := Percentile(xs, tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if xs[0] != 4 {
		t.Error("Percentile modified its input")
	}
}

func TestPercentileEmpty(t *testing.T) {
	if !math.IsNaN(Percentile(nil, 50)) {
		t.Error("expected NaN for empty input")
	}
}

func TestIntervalPercentiles(t *testing.T) {
	lo, hi := IntervalPercentiles(95)
	if lo != 2.5 || hi != 97.5 {
		t.Errorf("expected (2.5, 97.5), got (%v, %v)", lo, hi)
	}
}

func TestBands(t *testing.T) {
	curves := make([][]float64, 101)
	for i := range curves {
		curves[i] = []float64{float64(i), float64(2 * i)}
	}

	lower, upper, err := Bands(curves, 90)
	if err != nil {
		t.Fatalf("bands failed: %v", err)
	}
	if math.Abs(lower[0]-5) > 1e-9 || math.Abs(upper[0]-95) > 1e-9 {
		t.Errorf("point 0: got [%v, %v], want [5, 95]", lower[0], upper[0])
	}
	if math.Abs(lower[1]-10) > 1e-9 || math.Abs(upper[1]-190) > 1e-9 {
		t.Errorf("point 1: got [%v, %v], want [10, 190]", lower[1], upper[1])
	}
}

func TestBandsRagged(t *testing.T) {
	if _, _, err := Bands([][]float64{{1, 2}, {1}}, 95); err == nil {
		t.Error("expected error for ragged curves")
	}
	if _, _, err := Bands(nil, 95); err == nil {
		t.Error("expected error for empty ensemble")
	}
}

func TestRoundSig(t *testing.T) {
	tests := []struct {
		v, want float64
	}{
		{0.012345, 0.0123},
		{123.456, 123},
		{-9.876, -9.88},
		{100, 100},
		{12345, 12300},
		{0, 0},
	}

	for _, tt := range tests {
		if got := RoundSig(tt.v, 3); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("RoundSig(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestFold(t *testing.T) {
	got, err := Fold([]float64{1, 2, 3, 5, 6, 7})
	if err != nil {
		t.Fatalf("fold failed: %v", err)
	}
	want := []float64{4, 4, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := Fold([]float64{1, 2, 3}); err != ErrOddLength {
		t.Errorf("expected ErrOddLength, got %v", err)
	}
}
