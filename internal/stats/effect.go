package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/dimerfit/internal/bootstrap"
	"github.com/san-kum/dimerfit/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

var ErrEmptyGroup = errors.New("stats: group has no observations")

// EffectSize is the difference of group means B - A with its bootstrap
// distribution.
type EffectSize struct {
	Point        float64
	Distribution []float64
	NA, NB       int
	Lower, Upper float64
	Interval     float64
}

// BootstrapEffectSize resamples a and b independently, each within itself,
// and records mean(B) - mean(A) per iteration.
func BootstrapEffectSize(ctx context.Context, e *bootstrap.Engine, a, b []float64, interval float64) (*EffectSize, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptyGroup
	}
	if !ValidInterval(interval) {
		return nil, fmt.Errorf("stats: interval %v outside (0, 100)", interval)
	}

	diff := func(d []bootstrap.Dataset) (float64, error) {
		return stat.Mean(d[1][0], nil) - stat.Mean(d[0][0], nil), nil
	}

	data := []bootstrap.Dataset{{a}, {b}}
	dist, err := bootstrap.Bootstrap(ctx, e, data, diff)
	if err != nil {
		return nil, err
	}
	point, _ := diff(data)
	lo, hi := Interval(dist, interval)

	return &EffectSize{
		Point:        point,
		Distribution: dist,
		NA:           len(a),
		NB:           len(b),
		Lower:        lo,
		Upper:        hi,
		Interval:     interval,
	}, nil
}

// EffectSizeFromTable splits valueCol of t by the categorical groupCol and
// compares labelB against labelA.
func EffectSizeFromTable(ctx context.Context, e *bootstrap.Engine, t *dataset.Table, groupCol, valueCol, labelA, labelB string, interval float64) (*EffectSize, error) {
	groups, err := t.Column(groupCol)
	if err != nil {
		return nil, err
	}
	values, err := t.Floats(valueCol)
	if err != nil {
		return nil, err
	}

	var a, b []float64
	for i, g := range groups {
		switch g {
		case labelA:
			a = append(a, values[i])
		case labelB:
			b = append(b, values[i])
		}
	}
	if len(a) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyGroup, labelA)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyGroup, labelB)
	}
	return BootstrapEffectSize(ctx, e, a, b, interval)
}
