package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metric accumulates prediction/observation pairs.
type Metric interface {
	Name() string
	Observe(pred, obs float64)
	Value() float64
	Reset()
}

// SSE is the residual sum of squares.
type SSE struct {
	sum float64
}

func NewSSE() *SSE { return &SSE{} }

func (s *SSE) Name() string { return "sse" }

func (s *SSE) Observe(pred, obs float64) {
	d := pred - obs
	s.sum += d * d
}

func (s *SSE) Value() float64 { return s.sum }
func (s *SSE) Reset()         { s.sum = 0 }

// RMSE is the root mean squared residual.
type RMSE struct {
	sum     float64
	samples int
}

func NewRMSE() *RMSE { return &RMSE{} }

func (r *RMSE) Name() string { return "rmse" }

func (r *RMSE) Observe(pred, obs float64) {
	d := pred - obs
	r.sum += d * d
	r.samples++
}

func (r *RMSE) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return math.Sqrt(r.sum / float64(r.samples))
}

func (r *RMSE) Reset() {
	r.sum = 0
	r.samples = 0
}

// RSquared is the coefficient of determination of the observations.
type RSquared struct {
	pred []float64
	obs  []float64
}

func NewRSquared() *RSquared { return &RSquared{} }

func (r *RSquared) Name() string { return "r2" }

func (r *RSquared) Observe(pred, obs float64) {
	r.pred = append(r.pred, pred)
	r.obs = append(r.obs, obs)
}

func (r *RSquared) Value() float64 {
	if len(r.obs) < 2 {
		return 0
	}
	return stat.RSquaredFrom(r.pred, r.obs, nil)
}

func (r *RSquared) Reset() {
	r.pred = r.pred[:0]
	r.obs = r.obs[:0]
}

// Default returns the metrics reported for every fit.
func Default() []Metric {
	return []Metric{NewSSE(), NewRMSE(), NewRSquared()}
}

// Evaluate resets ms, feeds every pair through them and collects the values
// by name.
func Evaluate(pred, obs []float64, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i := range obs {
			m.Observe(pred[i], obs[i])
		}
		out[m.Name()] = m.Value()
	}
	return out
}
