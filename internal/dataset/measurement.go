package dataset

import (
	"fmt"
	"math"
	"strconv"
)

// Column names of the quantification output.
const (
	ColCyt      = "Cyt"
	ColMemPost  = "Mem_post"
	ColMemTot   = "Mem_tot"
	ColGenotype = "Genotype"
	ColUniPol   = "UniPol"
)

// Region selects which membrane measurement is analysed.
type Region string

const (
	RegionPost  Region = "post"
	RegionWhole Region = "whole"
)

func ParseRegion(s string) (Region, error) {
	switch Region(s) {
	case RegionPost, RegionWhole:
		return Region(s), nil
	}
	return "", fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownRegion, s, RegionPost, RegionWhole)
}

// Column returns the membrane column name for the region.
func (r Region) Column() string {
	if r == RegionWhole {
		return ColMemTot
	}
	return ColMemPost
}

// Measurement is one embryo.
type Measurement struct {
	Cyt      float64
	MemPost  float64
	MemTot   float64
	Genotype string
	UniPol   bool
}

// Membrane returns the membrane concentration for region r.
func (m Measurement) Membrane(r Region) float64 {
	if r == RegionWhole {
		return m.MemTot
	}
	return m.MemPost
}

// Measurements decodes a quantification table. Cyt is required; missing
// membrane columns decode as NaN and are rejected by Validate only when the
// region that needs them is analysed.
func Measurements(t *Table) ([]Measurement, error) {
	cyt, err := t.Floats(ColCyt)
	if err != nil {
		return nil, err
	}

	post, err := optionalFloats(t, ColMemPost)
	if err != nil {
		return nil, err
	}
	tot, err := optionalFloats(t, ColMemTot)
	if err != nil {
		return nil, err
	}

	var genotype, unipol []string
	if t.Has(ColGenotype) {
		genotype, _ = t.Column(ColGenotype)
	}
	if t.Has(ColUniPol) {
		unipol, _ = t.Column(ColUniPol)
	}

	out := make([]Measurement, len(cyt))
	for i := range cyt {
		out[i] = Measurement{Cyt: cyt[i], MemPost: post[i], MemTot: tot[i]}
		if genotype != nil {
			out[i].Genotype = genotype[i]
		}
		if unipol != nil && unipol[i] != "" {
			b, err := strconv.ParseBool(unipol[i])
			if err != nil {
				return nil, fmt.Errorf("%w: column %s row %d: %q", ErrInvalidValue, ColUniPol, i+1, unipol[i])
			}
			out[i].UniPol = b
		}
	}
	return out, nil
}

func optionalFloats(t *Table, name string) ([]float64, error) {
	if t.Has(name) {
		return t.Floats(name)
	}
	out := make([]float64, t.Len())
	for i := range out {
		out[i] = math.NaN()
	}
	return out, nil
}

// Load reads and decodes a quantification CSV.
func Load(path string) ([]Measurement, error) {
	t, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Measurements(t)
}

// Validate checks that every concentration used for region r is finite and
// strictly positive.
func Validate(ms []Measurement, r Region) error {
	if _, err := ParseRegion(string(r)); err != nil {
		return err
	}
	for i, m := range ms {
		if !positive(m.Cyt) {
			return fmt.Errorf("%w: row %d: %s = %v", ErrInvalidValue, i+1, ColCyt, m.Cyt)
		}
		if v := m.Membrane(r); !positive(v) {
			return fmt.Errorf("%w: row %d: %s = %v", ErrInvalidValue, i+1, r.Column(), v)
		}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Filter returns the measurements for which keep is true.
func Filter(ms []Measurement, keep func(Measurement) bool) []Measurement {
	out := make([]Measurement, 0, len(ms))
	for _, m := range ms {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
