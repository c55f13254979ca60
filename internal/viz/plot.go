package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dimerfit/internal/estimator"
)

const (
	plotHeight = 12
	plotWidth  = 70
)

// Quantity selects which curve of a group is plotted.
type Quantity string

const (
	QuantityFit      Quantity = "fit"
	QuantityCytDimer Quantity = "cyt_dimer"
	QuantityMemDimer Quantity = "mem_dimer"
)

func ParseQuantity(s string) (Quantity, error) {
	switch q := Quantity(s); q {
	case QuantityFit, QuantityCytDimer, QuantityMemDimer:
		return q, nil
	}
	return "", fmt.Errorf("unknown quantity %q (want fit, cyt_dimer or mem_dimer)", s)
}

// Series returns the point, lower and upper curves of q.
func Series(c *estimator.GroupCurve, q Quantity) (point, lower, upper []float64) {
	switch q {
	case QuantityCytDimer:
		return c.CytDimer, c.CytDimerLower, c.CytDimerUpper
	case QuantityMemDimer:
		return c.MemDimer, c.MemDimerLower, c.MemDimerUpper
	default:
		return c.Fit, c.FitLower, c.FitUpper
	}
}

// BandPlot draws the point curve of one group between its bounds.
func BandPlot(c *estimator.GroupCurve, q Quantity, interval float64) string {
	point, lower, upper := Series(c, q)
	if len(point) == 0 || len(lower) == 0 {
		return Subtle.Render("(no data)")
	}

	caption := fmt.Sprintf("%s %s, x %.3g..%.3g, %g%% band", c.Label, q, c.X[0], c.X[len(c.X)-1], interval)
	return asciigraph.PlotMany([][]float64{lower, point, upper},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Cyan, asciigraph.Gray),
		asciigraph.Caption(caption),
	)
}

// Histogram draws the bootstrap distribution of one parameter as a line of
// bin counts.
func Histogram(samples []float64, bins int, caption string) string {
	if len(samples) == 0 || bins < 1 {
		return Subtle.Render("(no samples)")
	}
	lo, hi := samples[0], samples[0]
	for _, v := range samples {
		lo, hi = min(lo, v), max(hi, v)
	}
	counts := make([]float64, bins)
	width := (hi - lo) / float64(bins)
	for _, v := range samples {
		k := bins - 1
		if width > 0 {
			k = min(int((v-lo)/width), bins-1)
		}
		counts[k]++
	}
	return asciigraph.Plot(counts,
		asciigraph.Height(8),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("%s (%.4g..%.4g)", caption, lo, hi)),
	)
}
