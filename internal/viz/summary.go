package viz

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dimerfit/internal/estimator"
)

// Summary renders the parameter estimates, their intervals and the fit
// metrics of a result.
func Summary(res *estimator.Result, theme Theme) string {
	var sb strings.Builder
	sb.WriteString(Title.Render(fmt.Sprintf("%s fit, %d bootstrap iterations", res.Model, len(res.Ensemble))))
	sb.WriteString("\n\n")

	header := fmt.Sprintf("%-8s %12s %12s %12s", "param", "estimate", "lower", "upper")
	sb.WriteString(HeaderStyle.Render(header))
	sb.WriteString("\n")
	for i, name := range res.ParamNames {
		lo, hi, err := res.ParamInterval(name)
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s %s %s %s\n",
			MetricLabel.Render(fmt.Sprintf("%-8s", name)),
			MetricValue.Render(fmt.Sprintf("%12.4f", res.Params[i])),
			fmt.Sprintf("%12.4f", lo),
			fmt.Sprintf("%12.4f", hi),
		))
	}

	if len(res.Curves) > 0 {
		sb.WriteString(Separator(len(header)))
		sb.WriteString("\n")
		for _, c := range res.Curves {
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.GroupColor(c.Group))).Render("●")
			sb.WriteString(fmt.Sprintf("%s %s  n=%d  affinity=%.4f\n", swatch, c.Label, len(c.ObsX), c.Affinity))
		}
	}

	if len(res.Metrics) > 0 {
		sb.WriteString(Separator(len(header)))
		sb.WriteString("\n")
		names := make([]string, 0, len(res.Metrics))
		for name := range res.Metrics {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			sb.WriteString(fmt.Sprintf("%s %s\n",
				MetricLabel.Render(fmt.Sprintf("%-8s", name)),
				MetricValue.Render(fmt.Sprintf("%.6g", res.Metrics[name]))))
		}
	}
	return Panel.Render(strings.TrimRight(sb.String(), "\n"))
}
