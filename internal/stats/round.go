package stats

import (
	"errors"
	"math"
)

// RoundSig rounds v to n significant figures.
func RoundSig(v float64, n int) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	e := float64(n) - math.Ceil(math.Log10(math.Abs(v)))
	if e < 0 {
		pow := math.Pow(10, -e)
		return math.Round(v/pow) * pow
	}
	pow := math.Pow(10, e)
	return math.Round(v*pow) / pow
}

var ErrOddLength = errors.New("stats: fold needs an even number of points")

// Fold averages a symmetric profile with its mirror image: the first half is
// reversed and averaged with the second half.
func Fold(xs []float64) ([]float64, error) {
	if len(xs)%2 != 0 {
		return nil, ErrOddLength
	}
	half := len(xs) / 2
	out := make([]float64, half)
	for i := 0; i < half; i++ {
		out[i] = (xs[half-1-i] + xs[half+i]) / 2
	}
	return out, nil
}
