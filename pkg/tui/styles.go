package tui

import "github.com/charmbracelet/lipgloss"

// palette is the resolved style set for one style/theme combination.
type palette struct {
	title        lipgloss.Style
	subtle       lipgloss.Style
	card         lipgloss.Style
	cardSelected lipgloss.Style
	badge        lipgloss.Style
	gain         lipgloss.Style
	loss         lipgloss.Style
	neutral      lipgloss.Style
	errText      lipgloss.Style
	box          lipgloss.Style
	statusBar    lipgloss.Style
	grad         lipgloss.Style
}

// Accent colors per style option, index-aligned with config.StyleOptions.
var styleAccents = map[string]struct {
	accent lipgloss.Color
	border lipgloss.Color
}{
	"default":  {accent: "#7D56F4", border: "#874BFD"},
	"gemini":   {accent: "#4285F4", border: "#5B94F5"},
	"gemini-2": {accent: "#00B8A9", border: "#1BC9BA"},
	"gemini-3": {accent: "#F4A259", border: "#F5B06E"},
}

func newPalette(style, theme string) palette {
	accents, ok := styleAccents[style]
	if !ok {
		accents = styleAccents["default"]
	}

	fg := lipgloss.Color("#FAFAFA")
	subtle := lipgloss.Color("241")
	if theme == "light" {
		fg = lipgloss.Color("#1A1A1A")
		subtle = lipgloss.Color("245")
	}

	return palette{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(accents.accent).
			Padding(0, 1).
			Bold(true),
		subtle: lipgloss.NewStyle().Foreground(subtle),
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1),
		cardSelected: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accents.border).
			Padding(0, 1),
		badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(accents.accent).
			Padding(0, 1).
			Bold(true),
		gain:    lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		loss:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
		neutral: lipgloss.NewStyle().Foreground(subtle),
		errText: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accents.border).
			Padding(0, 1),
		statusBar: lipgloss.NewStyle().Foreground(fg),
		grad:      lipgloss.NewStyle().Foreground(accents.accent),
	}
}
