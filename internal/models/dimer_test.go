package models

import (
	"math"
	"testing"
)

func TestFractionIdentity(t *testing.T) {
	for _, ka := range []float64{-3, 0, 1, 4.5} {
		for _, c := range []float64{1e-9, 1e-4, 0.3, 1, 17, 1e3} {
			sum := MonomerFraction(c, ka) + DimerFraction(c, ka)
			if math.Abs(sum-1) > 1e-12 {
				t.Errorf("ka=%v c=%v: monomer+dimer = %v", ka, c, sum)
			}
		}
	}
}

func TestDimerFractionMonotonic(t *testing.T) {
	ka := 1.0
	prev := -1.0
	for i := 0; i <= 200; i++ {
		c := math.Pow(10, -6+float64(i)*0.04)
		f := DimerFraction(c, ka)
		if f < 0 || f >= 1 {
			t.Fatalf("dimer fraction %v out of [0, 1) at c=%v", f, c)
		}
		if f < prev {
			t.Fatalf("dimer fraction decreased at c=%v: %v < %v", c, f, prev)
		}
		prev = f
	}
}

func TestMonomerFractionDilute(t *testing.T) {
	if got := MonomerFraction(1e-12, 0); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected fully monomeric at infinite dilution, got %v", got)
	}
}

func TestDimerPercent(t *testing.T) {
	conc := []float64{0.1, 1, 10}
	pct := DimerPercent(conc, 0.5)
	for i, c := range conc {
		want := 100 * DimerFraction(c, 0.5)
		if math.Abs(pct[i]-want) > 1e-12 {
			t.Errorf("index %d: got %v, want %v", i, pct[i], want)
		}
	}
}

func TestMembraneFromCytoplasmLimits(t *testing.T) {
	km := 3.0

	// weak binding: m ~ c*km
	c := 1e-3
	m := MembraneFromCytoplasm(1e-6, km, c)
	if math.Abs(m/(c*km)-1) > 1e-3 {
		t.Errorf("dilute limit: m/(c*km) = %v", m/(c*km))
	}

	// strong binding: m ~ c*km^2
	m = MembraneFromCytoplasm(1e9, km, 1)
	if math.Abs(m/(km*km)-1) > 1e-3 {
		t.Errorf("saturated limit: m/km^2 = %v", m/(km*km))
	}
}
