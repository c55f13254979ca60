package models

import (
	"fmt"
	"math"
)

// Inputs holds the independent variables of a dataset. X is the cytoplasmic
// concentration (log10 for log-space models). Group is the 0/1 genotype
// indicator used by paired models and ignored otherwise.
type Inputs struct {
	X     []float64
	Group []int
}

// Len returns the number of observations.
func (in Inputs) Len() int { return len(in.X) }

// Constant returns inputs of n copies of group g over the given grid.
func Constant(x []float64, g int) Inputs {
	group := make([]int, len(x))
	for i := range group {
		group[i] = g
	}
	return Inputs{X: x, Group: group}
}

type Model interface {
	Name() string
	ParamNames() []string
	Predict(in Inputs, p []float64) []float64
	LogSpace() bool
}

// Unpaired fits a single affinity and capacity: p = (ka, km).
type Unpaired struct {
	Log bool
}

func NewUnpaired(log bool) *Unpaired { return &Unpaired{Log: log} }

func (u *Unpaired) Name() string {
	if u.Log {
		return "unpaired_log"
	}
	return "unpaired"
}

func (u *Unpaired) ParamNames() []string { return []string{"ka", "km"} }
func (u *Unpaired) LogSpace() bool       { return u.Log }

func (u *Unpaired) Predict(in Inputs, p []float64) []float64 {
	ka, km := math.Pow(10, p[0]), math.Pow(10, p[1])
	out := make([]float64, len(in.X))
	for i, x := range in.X {
		out[i] = predictOne(x, ka, km, u.Log)
	}
	return out
}

// Paired fits one affinity per group sharing a capacity: p = (ka1, ka2, km).
// ka1 applies where Group is 0, ka2 where it is 1.
type Paired struct {
	Log bool
}

func NewPaired(log bool) *Paired { return &Paired{Log: log} }

func (m *Paired) Name() string {
	if m.Log {
		return "paired_log"
	}
	return "paired"
}

func (m *Paired) ParamNames() []string { return []string{"ka1", "ka2", "km"} }
func (m *Paired) LogSpace() bool       { return m.Log }

func (m *Paired) Predict(in Inputs, p []float64) []float64 {
	return predictPaired(in, p, m.Log)
}

// PairedScaled is Paired with an overall scale exponent: p = (ka1, ka2, km, D).
// In log space the log10 prediction itself is multiplied by 10**D.
type PairedScaled struct {
	Log bool
}

func NewPairedScaled(log bool) *PairedScaled { return &PairedScaled{Log: log} }

func (m *PairedScaled) Name() string {
	if m.Log {
		return "paired_scaled_log"
	}
	return "paired_scaled"
}

func (m *PairedScaled) ParamNames() []string { return []string{"ka1", "ka2", "km", "D"} }
func (m *PairedScaled) LogSpace() bool       { return m.Log }

func (m *PairedScaled) Predict(in Inputs, p []float64) []float64 {
	out := predictPaired(in, p[:3], m.Log)
	scale := math.Pow(10, p[3])
	for i := range out {
		out[i] *= scale
	}
	return out
}

func predictPaired(in Inputs, p []float64, log bool) []float64 {
	ka := [2]float64{math.Pow(10, p[0]), math.Pow(10, p[1])}
	km := math.Pow(10, p[2])
	out := make([]float64, len(in.X))
	for i, x := range in.X {
		out[i] = predictOne(x, ka[in.Group[i]], km, log)
	}
	return out
}

func predictOne(x, ka, km float64, log bool) float64 {
	if !log {
		return MembraneFromCytoplasm(ka, km, x)
	}
	return math.Log10(MembraneFromCytoplasm(ka, km, math.Pow(10, x)))
}

// Kind names a model family.
type Kind int

const (
	KindUnpaired Kind = iota
	KindPaired
	KindPairedScaled
)

func (k Kind) String() string {
	switch k {
	case KindUnpaired:
		return "unpaired"
	case KindPaired:
		return "paired"
	case KindPairedScaled:
		return "paired_scaled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "unpaired":
		return KindUnpaired, nil
	case "paired":
		return KindPaired, nil
	case "paired_scaled":
		return KindPairedScaled, nil
	}
	return 0, fmt.Errorf("unknown model: %s", s)
}

// Paired reports whether the kind fits one affinity per group.
func (k Kind) Paired() bool { return k == KindPaired || k == KindPairedScaled }

// New builds the model for a kind.
func New(k Kind, log bool) (Model, error) {
	switch k {
	case KindUnpaired:
		return NewUnpaired(log), nil
	case KindPaired:
		return NewPaired(log), nil
	case KindPairedScaled:
		return NewPairedScaled(log), nil
	}
	return nil, fmt.Errorf("unknown model: %s", k)
}
