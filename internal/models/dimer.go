package models

import "math"

// MembraneFromCytoplasm is the closed-form solution of the dimerization
// equilibrium. ka and km are linear (not log10) quantities.
func MembraneFromCytoplasm(ka, km, c float64) float64 {
	x := c * ka
	s := math.Sqrt(8*x + 1)

	num := 2*x*km*(4*x+s+1) +
		math.Sqrt(32*x*x*x+24*x*x*s+72*x*x+16*x*s+24*x+2*s+2)
	den := 8*x*x + 4*x*s + 8*x + s + 1

	return c * km * num / den
}

// MonomerFraction returns the fraction of total concentration conc that is
// monomeric at log10 affinity ka.
func MonomerFraction(conc, ka float64) float64 {
	// (sqrt(4ck+1) - 1) / (2kc), rationalised to stay accurate as ck -> 0.
	s := math.Sqrt(4*conc*math.Pow(10, ka) + 1)
	return 2 / (s + 1)
}

// DimerFraction is 1 - MonomerFraction.
func DimerFraction(conc, ka float64) float64 {
	s := math.Sqrt(4*conc*math.Pow(10, ka) + 1)
	return (s - 1) / (s + 1)
}

// DimerPercent applies DimerFraction to every concentration and scales to
// percent.
func DimerPercent(conc []float64, ka float64) []float64 {
	out := make([]float64, len(conc))
	for i, c := range conc {
		out[i] = 100 * DimerFraction(c, ka)
	}
	return out
}
