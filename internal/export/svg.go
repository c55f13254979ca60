package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/dimerfit/internal/estimator"
	"github.com/san-kum/dimerfit/internal/viz"
)

const svgMargin = 50.0

type frame struct {
	minX, maxX, minY, maxY float64
	width, height          float64
}

func (f frame) px(x float64) float64 {
	return svgMargin + (x-f.minX)/(f.maxX-f.minX)*(f.width-2*svgMargin)
}

func (f frame) py(y float64) float64 {
	return f.height - svgMargin - (y-f.minY)/(f.maxY-f.minY)*(f.height-2*svgMargin)
}

func newFrame(curves []estimator.GroupCurve, q viz.Quantity, withObs bool, width, height int) frame {
	f := frame{
		minX: math.Inf(1), maxX: math.Inf(-1),
		minY: math.Inf(1), maxY: math.Inf(-1),
		width: float64(width), height: float64(height),
	}
	grow := func(xs, ys []float64) {
		for i := range xs {
			f.minX, f.maxX = math.Min(f.minX, xs[i]), math.Max(f.maxX, xs[i])
			f.minY, f.maxY = math.Min(f.minY, ys[i]), math.Max(f.maxY, ys[i])
		}
	}
	for i := range curves {
		c := &curves[i]
		_, lower, upper := viz.Series(c, q)
		grow(c.X, lower)
		grow(c.X, upper)
		if withObs {
			grow(c.ObsX, c.ObsY)
		}
	}

	rangeX, rangeY := f.maxX-f.minX, f.maxY-f.minY
	if rangeX == 0 || math.IsInf(rangeX, 0) {
		rangeX = 1
	}
	if rangeY == 0 || math.IsInf(rangeY, 0) {
		rangeY = 1
	}
	f.minX -= rangeX * 0.05
	f.maxX += rangeX * 0.05
	f.minY -= rangeY * 0.05
	f.maxY += rangeY * 0.05
	return f
}

// tickLabel formats an axis value; log-space axes read as powers of ten.
func tickLabel(v float64, log bool) string {
	if log {
		return fmt.Sprintf("10^%.1f", v)
	}
	return fmt.Sprintf("%.3g", v)
}

// BandsToSVG draws every group's point curve over its lightened confidence
// band. Observations are drawn for the fitted membrane curve only.
func BandsToSVG(res *estimator.Result, q viz.Quantity, theme viz.Theme, width, height int) (string, error) {
	if len(res.Curves) == 0 {
		return "", fmt.Errorf("export: result has no curves")
	}
	withObs := q == viz.QuantityFit
	f := newFrame(res.Curves, q, withObs, width, height)
	logX := res.LogSpace
	logY := res.LogSpace && q == viz.QuantityFit

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, width, height, width, height))

	sb.WriteString(fmt.Sprintf(`<g stroke="#000000" stroke-width="1">
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
</g>
`, svgMargin, f.height-svgMargin, f.width-svgMargin, f.height-svgMargin,
		svgMargin, svgMargin, svgMargin, f.height-svgMargin))

	sb.WriteString(`<g font-family="sans-serif" font-size="10" fill="#000000">` + "\n")
	for i := 0; i <= 4; i++ {
		x := f.minX + (f.maxX-f.minX)*float64(i)/4
		y := f.minY + (f.maxY-f.minY)*float64(i)/4
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>`+"\n", f.px(x), f.height-svgMargin+15, tickLabel(x, logX)))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="end">%s</text>`+"\n", svgMargin-5, f.py(y)+3, tickLabel(y, logY)))
	}
	sb.WriteString("</g>\n")

	for i := range res.Curves {
		c := &res.Curves[i]
		stroke := theme.GroupColor(c.Group)
		fill, err := Lighten(stroke, DefaultLighten)
		if err != nil {
			return "", err
		}
		point, lower, upper := viz.Series(c, q)
		if len(lower) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf(`<path fill="%s" fill-opacity="0.6" stroke="none" d="`, fill))
		for j := range c.X {
			cmd := " L"
			if j == 0 {
				cmd = "M"
			}
			sb.WriteString(fmt.Sprintf("%s%.1f,%.1f", cmd, f.px(c.X[j]), f.py(upper[j])))
		}
		for j := len(c.X) - 1; j >= 0; j-- {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", f.px(c.X[j]), f.py(lower[j])))
		}
		sb.WriteString(" Z\"/>\n")

		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke))
		for j := range c.X {
			cmd := " L"
			if j == 0 {
				cmd = "M"
			}
			sb.WriteString(fmt.Sprintf("%s%.1f,%.1f", cmd, f.px(c.X[j]), f.py(point[j])))
		}
		sb.WriteString("\"/>\n")

		if withObs {
			sb.WriteString(fmt.Sprintf(`<g fill="%s">`+"\n", stroke))
			for j := range c.ObsX {
				sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2.5"/>`+"\n", f.px(c.ObsX[j]), f.py(c.ObsY[j])))
			}
			sb.WriteString("</g>\n")
		}

		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="12" fill="%s">%s</text>`+"\n",
			f.width-svgMargin-80, svgMargin+float64(i)*16, stroke, c.Label))
	}

	sb.WriteString("</svg>")
	return sb.String(), nil
}
