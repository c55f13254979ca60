package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the colour scheme of summaries and plots. Groups holds one
// colour per genotype group, in group order.
type Theme struct {
	Name   string
	Groups []string
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Accent lipgloss.Color
	Warn   lipgloss.Color
}

var (
	ThemePaper = Theme{
		Name:   "paper",
		Groups: []string{"#1f77b4", "#d62728", "#2ca02c", "#9467bd"},
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#888899"),
		Accent: lipgloss.Color("#00ccff"),
		Warn:   lipgloss.Color("#ffaa00"),
	}

	ThemeMinimal = Theme{
		Name:   "minimal",
		Groups: []string{"#000000", "#777777", "#bbbbbb", "#444444"},
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#888888"),
		Accent: lipgloss.Color("#0088ff"),
		Warn:   lipgloss.Color("#ffaa00"),
	}

	ThemeOcean = Theme{
		Name:   "ocean",
		Groups: []string{"#0077be", "#ff7f50", "#20b2aa", "#4169e1"},
		Text:   lipgloss.Color("#e0f7fa"),
		Muted:  lipgloss.Color("#4a6572"),
		Accent: lipgloss.Color("#00bfff"),
		Warn:   lipgloss.Color("#ffd54f"),
	}
)

var themes = []Theme{ThemePaper, ThemeMinimal, ThemeOcean}

// GetTheme returns the named theme, falling back to paper.
func GetTheme(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return ThemePaper
}

func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// GroupColor returns the colour of group g, cycling through the palette.
func (t Theme) GroupColor(g int) string {
	return t.Groups[g%len(t.Groups)]
}
