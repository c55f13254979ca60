package metrics

import (
	"math"
	"testing"
)

func TestSSE(t *testing.T) {
	m := NewSSE()
	m.Observe(1, 2)
	m.Observe(3, 1)
	if m.Value() != 5 {
		t.Errorf("expected 5, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestRMSE(t *testing.T) {
	m := NewRMSE()
	if m.Value() != 0 {
		t.Error("expected zero with no samples")
	}
	m.Observe(0, 3)
	m.Observe(0, 4)
	want := math.Sqrt(12.5)
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, m.Value())
	}
}

func TestRSquaredPerfectFit(t *testing.T) {
	obs := []float64{1, 2, 3, 4}
	got := Evaluate(obs, obs, Default()...)
	if math.Abs(got["r2"]-1) > 1e-12 {
		t.Errorf("expected r2 = 1, got %f", got["r2"])
	}
	if got["sse"] != 0 || got["rmse"] != 0 {
		t.Errorf("expected zero residuals, got %v", got)
	}
}

func TestEvaluateResets(t *testing.T) {
	m := NewSSE()
	m.Observe(10, 0)
	got := Evaluate([]float64{1}, []float64{0}, m)
	if got["sse"] != 1 {
		t.Errorf("expected stale state to be cleared, got %f", got["sse"])
	}
}
