package bootstrap

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrEmptyDataset indicates a dataset or group with no rows.
	ErrEmptyDataset = errors.New("bootstrap: empty dataset")

	// ErrRaggedDataset indicates columns of different lengths in one dataset.
	ErrRaggedDataset = errors.New("bootstrap: columns differ in length")
)

// Dataset is a set of columns that share row indices.
type Dataset [][]float64

// Len returns the row count, or -1 when columns are ragged.
func (d Dataset) Len() int {
	if len(d) == 0 {
		return 0
	}
	n := len(d[0])
	for _, col := range d[1:] {
		if len(col) != n {
			return -1
		}
	}
	return n
}

// Take returns the rows of d at idx.
func (d Dataset) Take(idx []int) Dataset {
	out := make(Dataset, len(d))
	for c, col := range d {
		out[c] = Take(col, idx)
	}
	return out
}

// Indices draws n indices in [0, n) uniformly with replacement.
func Indices(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

// Take gathers xs at idx.
func Take[T any](xs []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}

// Resample draws an independent index set per dataset and applies it to
// every column of that dataset.
func Resample(rng *rand.Rand, data []Dataset) ([]Dataset, error) {
	out := make([]Dataset, len(data))
	for i, d := range data {
		n := d.Len()
		switch {
		case n < 0:
			return nil, fmt.Errorf("%w: dataset %d", ErrRaggedDataset, i)
		case n == 0:
			return nil, fmt.Errorf("%w: dataset %d", ErrEmptyDataset, i)
		}
		out[i] = d.Take(Indices(rng, n))
	}
	return out, nil
}

// ResampleGroups redraws rows within each group and concatenates the groups
// in order 0..nGroups-1. The returned indices address the original rows;
// group g contributes exactly as many rows as it had.
func ResampleGroups(rng *rand.Rand, group []int, nGroups int) ([]int, error) {
	members := make([][]int, nGroups)
	for i, g := range group {
		if g < 0 || g >= nGroups {
			return nil, fmt.Errorf("bootstrap: group %d out of range [0, %d)", g, nGroups)
		}
		members[g] = append(members[g], i)
	}

	out := make([]int, 0, len(group))
	for g, rows := range members {
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w: group %d", ErrEmptyDataset, g)
		}
		for _, k := range Indices(rng, len(rows)) {
			out = append(out, rows[k])
		}
	}
	return out, nil
}
