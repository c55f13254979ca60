// Package viz renders fit results in the terminal: lipgloss summaries of the
// parameter estimates and asciigraph plots of the confidence bands.
//
// Colours come from a [Theme]; the same palette feeds the SVG export so a
// group has one colour everywhere.
package viz
