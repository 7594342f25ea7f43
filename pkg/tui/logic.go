package tui

import (
	"strings"
	"time"

	"solfavs/pkg/mint"
	"solfavs/pkg/models"
	"solfavs/pkg/pipeline"
	"solfavs/pkg/utils"

	tea "github.com/charmbracelet/bubbletea"
)

// tokenCard is the flat projection of one snapshot the renderer consumes.
// Empty strings mean "hide the row".
type tokenCard struct {
	Mint        string
	Name        string
	Symbol      string
	IconGlyph   string
	MintPreview string
	Metric      string
	MetricLabel string
	Change1h    string
	Change6h    string
	Change24h   string
	Graduated   string
	Links       []string
}

// buildCard projects a snapshot for the given display mode ("mcap" or
// "price") and density ("compact" or "expanded").
func buildCard(s models.TokenSnapshot, display, density string) tokenCard {
	c := tokenCard{
		Mint:        s.Mint,
		Name:        "unknown token",
		IconGlyph:   "○",
		MintPreview: mint.Preview(s.Mint),
		Change1h:    utils.FormatPercent(s.PriceChange(models.Window1h)),
		Change6h:    utils.FormatPercent(s.PriceChange(models.Window6h)),
		Change24h:   utils.FormatPercent(s.PriceChange(models.Window24h)),
	}

	if s.Info != nil {
		if name := strings.TrimSpace(s.Info.Name); name != "" {
			c.Name = name
		}
		if s.Info.Icon != "" {
			c.IconGlyph = "●"
		}
	}

	c.Symbol = symbolLabel(s, density)

	if display == "price" {
		if usd := s.USD(); usd != nil {
			c.Metric = utils.FormatCurrency(usd, false)
			c.MetricLabel = "PX"
		}
	} else {
		if mcap := s.Mcap(); mcap != nil {
			c.Metric = utils.FormatCurrency(mcap, true)
			c.MetricLabel = "MC"
		}
	}

	if g := s.GraduatedAt(); g != nil {
		c.Graduated = "🎓 " + g.Time().Local().Format("2 Jan 2006")
	}

	if density == "expanded" && s.Info != nil {
		if s.Info.Website != "" {
			c.Links = append(c.Links, "web")
		}
		if s.Info.Twitter != "" {
			c.Links = append(c.Links, "𝕏")
		}
		if s.Info.Telegram != "" {
			c.Links = append(c.Links, "tg")
		}
	}
	return c
}

// symbolLabel resolves the badge text: the token symbol, $-prefixed only in
// expanded density, falling back to the mint's first six characters
// uppercased.
func symbolLabel(s models.TokenSnapshot, density string) string {
	symbol := ""
	if s.Info != nil {
		symbol = strings.TrimSpace(s.Info.Symbol)
	}
	if symbol == "" {
		head := s.Mint
		if len(head) > 6 {
			head = head[:6]
		}
		return strings.ToUpper(head)
	}
	bare := strings.TrimPrefix(symbol, "$")
	if density == "expanded" {
		return "$" + bare
	}
	return bare
}

func axiomURL(m string) string {
	return "https://axiom.trade/t/" + m
}

// importCounts tallies an add-input: likely mints in first-seen order plus
// the count of non-empty tokens that are not plausible mints.
func importCounts(text string) (candidates []string, invalid int) {
	candidates = mint.Extract(text)
	likely := make(map[string]struct{}, len(candidates))
	for _, m := range candidates {
		likely[m] = struct{}{}
	}
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ','
	}) {
		if _, ok := likely[strings.TrimSpace(tok)]; !ok {
			invalid++
		}
	}
	return candidates, invalid
}

func listenForPipeline(sub pipeline.Subscriber) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil
		}
		return event
	}
}

// cycleString returns the entry after current, wrapping; unknown values
// reset to the first entry.
func cycleString(options []string, current string) string {
	for i, opt := range options {
		if opt == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func cycleInterval(options []int, current int) int {
	for i, opt := range options {
		if opt == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func intervalLabel(seconds int) string {
	if seconds == 0 {
		return "off"
	}
	return (time.Duration(seconds) * time.Second).String()
}
