package tui

import (
	"fmt"
	"strings"
	"time"

	"solfavs/pkg/models"
	"solfavs/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const (
	compactCardWidth  = 34
	expandedCardWidth = 44
)

func (m model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}

	if m.showDetail {
		return m.viewDetail()
	}

	if m.adding {
		return lipgloss.Place(
			m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.styles.box.Render(lipgloss.JoinVertical(lipgloss.Left,
				m.styles.title.Render("Add Tokens"),
				"\n",
				m.addInput.View(),
				"\n",
				m.styles.subtle.Render("Enter to add • Esc to cancel"),
			)),
		)
	}

	visible := m.pl.VisibleList(time.Now())

	var sections []string
	sections = append(sections, m.viewHeader())

	if m.searching {
		sections = append(sections, "  / "+m.searchInput.View())
	}

	if m.pl.CleanupActive() {
		prompt := fmt.Sprintf("Remove %d inactive token(s)? Enter/D to confirm • any other key to cancel", len(visible))
		sections = append(sections, m.styles.errText.Render("  "+prompt))
	}

	switch {
	case len(visible) > 0:
		sections = append(sections, m.viewGrid(visible))
	case len(m.pl.Tracked()) == 0:
		sections = append(sections, m.viewPlaceholder(
			"No tokens tracked yet",
			"Press a to add mint addresses, or p to import from the clipboard."))
	case m.pl.LastError() != nil && len(m.pl.Snapshot()) == 0:
		sections = append(sections, m.viewPlaceholder(
			"Could not load token data",
			fmt.Sprintf("%v — press r to retry", m.pl.LastError())))
	default:
		sections = append(sections, m.viewPlaceholder(
			"No tokens match",
			"Adjust the search or filters (/, f, g)."))
	}

	sections = append(sections, m.viewStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) viewHeader() string {
	title := m.styles.title.Render(" solfavs " + Version + " ")
	if m.loading {
		return lipgloss.JoinHorizontal(lipgloss.Center, title, " ", m.spinner.View())
	}
	return title
}

func (m model) viewGrid(visible []models.TokenSnapshot) string {
	cardWidth := compactCardWidth
	if m.density == "expanded" {
		cardWidth = expandedCardWidth
	}
	perRow := m.width / (cardWidth + 2)
	if perRow < 1 {
		perRow = 1
	}

	display := m.pl.Display()
	var rows []string
	for start := 0; start < len(visible); start += perRow {
		end := start + perRow
		if end > len(visible) {
			end = len(visible)
		}
		var cards []string
		for i := start; i < end; i++ {
			cards = append(cards, m.renderCard(buildCard(visible[i], display, m.density), cardWidth, i == m.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m model) renderCard(c tokenCard, width int, selected bool) string {
	var lines []string

	maxName := width - len(c.Symbol) - 8
	if maxName < 4 {
		maxName = 4
	}
	name := utils.TruncateString(c.Name, maxName)
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Center,
		m.styles.badge.Render(c.IconGlyph+" "+c.Symbol), " ", name))
	lines = append(lines, m.styles.subtle.Render(c.MintPreview))

	if c.Metric != "" {
		lines = append(lines, fmt.Sprintf("%s %s", m.styles.subtle.Render(c.MetricLabel), c.Metric))
	}

	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Center,
		m.styles.subtle.Render("1H "), m.changeStyle(c.Change1h).Render(c.Change1h), "  ",
		m.styles.subtle.Render("6H "), m.changeStyle(c.Change6h).Render(c.Change6h), "  ",
		m.styles.subtle.Render("24H "), m.changeStyle(c.Change24h).Render(c.Change24h),
	))

	if c.Graduated != "" {
		lines = append(lines, m.styles.grad.Render(c.Graduated))
	}
	if len(c.Links) > 0 {
		lines = append(lines, m.styles.subtle.Render(strings.Join(c.Links, " • ")))
	}

	style := m.styles.card
	if selected {
		style = m.styles.cardSelected
	}
	return style.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m model) changeStyle(formatted string) lipgloss.Style {
	switch {
	case strings.HasPrefix(formatted, "+0.00"), formatted == "--":
		return m.styles.neutral
	case strings.HasPrefix(formatted, "-"):
		return m.styles.loss
	case strings.HasPrefix(formatted, "+"):
		return m.styles.gain
	}
	return m.styles.neutral
}

func (m model) viewPlaceholder(title, body string) string {
	return lipgloss.Place(
		m.width, m.height-4, lipgloss.Center, lipgloss.Center,
		m.styles.box.Render(lipgloss.JoinVertical(lipgloss.Center,
			m.styles.title.Render(title),
			"\n",
			body,
		)),
	)
}

func (m model) viewStatusBar() string {
	filtered, total := m.pl.Counts(time.Now())
	sort := m.pl.Sort()
	filter := m.pl.Filter()

	parts := []string{
		fmt.Sprintf("%d / %d tokens", filtered, total),
		fmt.Sprintf("sort %s %s", sort.By, sort.Direction),
	}
	if filter.Mcap != "all" {
		parts = append(parts, "mcap:"+filter.Mcap)
	}
	if filter.Graduation != "all" {
		parts = append(parts, "grad:"+filter.Graduation)
	}
	if q := m.pl.Search(); q != "" {
		parts = append(parts, fmt.Sprintf("search %q", q))
	}
	parts = append(parts, "every "+intervalLabel(m.pl.Prefs().RefreshIntervalSeconds))
	if m.clipboardWatch {
		parts = append(parts, "watch 📋")
	}
	if last := m.pl.LastUpdate(); !last.IsZero() {
		parts = append(parts, "updated "+last.Format("15:04:05"))
	}

	bar := m.styles.subtle.Render(strings.Join(parts, " • "))
	// A failing refresh stays visible until the next one succeeds.
	if err := m.pl.LastError(); err != nil {
		bar = lipgloss.JoinHorizontal(lipgloss.Center, bar, "  ", m.styles.errText.Render("refresh failing"))
	}
	if m.statusMessage != "" {
		bar = lipgloss.JoinVertical(lipgloss.Left, bar, m.styles.statusBar.Render(m.statusMessage))
	}
	return bar
}

func (m *model) updateDetailViewport() {
	s, ok := m.selected()
	if !ok {
		m.viewport.SetContent("")
		return
	}

	c := buildCard(s, m.pl.Display(), "expanded")
	var lines []string
	lines = append(lines, m.styles.title.Render(c.Symbol+" — "+c.Name))
	lines = append(lines, "")
	lines = append(lines, "Mint      "+s.Mint)
	lines = append(lines, "Mcap      "+utils.FormatCurrency(s.Mcap(), true))
	lines = append(lines, "Price     "+utils.FormatCurrency(s.USD(), false))
	if s.Info != nil && s.Info.Liquidity != nil {
		lines = append(lines, "Liquidity "+utils.FormatCurrency(s.Info.Liquidity, true))
	}
	lines = append(lines, fmt.Sprintf("Change    1H %s  6H %s  24H %s", c.Change1h, c.Change6h, c.Change24h))
	if c.Graduated != "" {
		lines = append(lines, c.Graduated)
	}

	lines = append(lines, "")
	if s.Info != nil {
		if s.Info.Website != "" {
			lines = append(lines, "Website   "+s.Info.Website)
		}
		if s.Info.Twitter != "" {
			lines = append(lines, "Twitter   "+s.Info.Twitter)
		}
		if s.Info.Telegram != "" {
			lines = append(lines, "Telegram  "+s.Info.Telegram)
		}
	}
	lines = append(lines, "Trade     "+axiomURL(s.Mint))

	if history := m.pl.PriceHistory(s.Mint); len(history) >= 2 {
		width := m.viewport.Width - 12
		if width < 20 {
			width = 20
		}
		lines = append(lines, "", m.styles.subtle.Render("Price history"),
			asciigraph.Plot(history, asciigraph.Height(8), asciigraph.Width(width)))
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m model) viewDetail() string {
	footer := m.styles.subtle.Render("c: copy mint • o: open in browser • q/esc: back")
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		m.styles.box.Render(m.viewport.View()),
		footer,
	)
}

func (m model) viewHelp() string {
	rows := []string{
		"a        add tokens (paste mints)",
		"p        import mints from clipboard now",
		"w        toggle clipboard watch",
		"/        search (Esc clears)",
		"s / S    cycle sort key / flip direction",
		"f        cycle market-cap filter",
		"g        cycle graduation filter",
		"m        toggle mcap/price metric",
		"v        toggle compact/expanded cards",
		"t        toggle dark/light theme",
		"y        cycle color style",
		"i        cycle refresh interval",
		"r        refresh now",
		"enter    token detail",
		"c        copy selected mint",
		"o        open trading page",
		"x        remove selected token",
		"D        clean up inactive tokens",
		"arrows   move selection",
		"q        quit",
	}
	return lipgloss.Place(
		m.width, m.height, lipgloss.Center, lipgloss.Center,
		m.styles.box.Render(lipgloss.JoinVertical(lipgloss.Left,
			m.styles.title.Render("Keys"),
			"\n",
			strings.Join(rows, "\n"),
			"\n",
			m.styles.subtle.Render("q / esc / ? to close"),
		)),
	)
}
