// Package models provides the dimerization binding models fitted to
// cytoplasmic vs. membrane concentration data.
//
// Every model implements [Model], mapping the independent variables of a
// dataset ([Inputs]) and a parameter vector to a predicted membrane signal:
//
//   - [Unpaired]: one affinity (ka) and one capacity (km)
//   - [Paired]: per-group affinities (ka1, ka2) sharing one capacity (km)
//   - [PairedScaled]: [Paired] with an extra scale exponent D
//
// Affinities and capacities are log10 values; they are exponentiated
// internally so the physical quantities stay positive for any real
// parameter. Log-space variants take log10 concentrations and return the
// log10 of the prediction.
//
// # Dimer fraction
//
// [MonomerFraction] and [DimerFraction] give the fraction of protein in each
// form at a total concentration and affinity:
//
//	pct := 100 * models.DimerFraction(conc, ka)
package models
