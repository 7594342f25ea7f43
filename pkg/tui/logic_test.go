package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	tea "github.com/charmbracelet/bubbletea"

	"solfavs/pkg/config"
	"solfavs/pkg/models"
	"solfavs/pkg/pipeline"
)

func f(v float64) *float64 { return &v }

func TestBuildCardFallbacks(t *testing.T) {
	bare := models.TokenSnapshot{Mint: "Eppcp4FhG6wmaRno3omWWvKsZHbzucVLR316SdXopump"}
	c := buildCard(bare, "mcap", "compact")

	assert.Equal(t, "unknown token", c.Name)
	assert.Equal(t, "EPPCP4", c.Symbol, "symbol falls back to the mint head uppercased")
	assert.Equal(t, "○", c.IconGlyph)
	assert.Equal(t, "Eppcp4…pump", c.MintPreview)
	assert.Empty(t, c.Metric, "metric row hidden when the source value is missing")
	assert.Equal(t, "--", c.Change1h)
	assert.Empty(t, c.Graduated)
}

func TestBuildCardMetricModes(t *testing.T) {
	s := models.TokenSnapshot{
		Mint:  "M",
		Info:  &models.TokenInfo{Name: "Dogwifhat", Symbol: "$WIF", Icon: "https://x/i.png", Mcap: f(2_500_000)},
		Price: &models.TokenPrice{USDPrice: f(1.2345)},
	}

	c := buildCard(s, "mcap", "compact")
	assert.Equal(t, "$2.5M", c.Metric)
	assert.Equal(t, "MC", c.MetricLabel)
	assert.Equal(t, "●", c.IconGlyph)

	c = buildCard(s, "price", "compact")
	assert.Equal(t, "$1.2345", c.Metric)
	assert.Equal(t, "PX", c.MetricLabel)
}

func TestSymbolLabelDensity(t *testing.T) {
	s := models.TokenSnapshot{Mint: "M", Info: &models.TokenInfo{Symbol: "$WIF"}}
	assert.Equal(t, "WIF", symbolLabel(s, "compact"), "compact density strips the dollar prefix")
	assert.Equal(t, "$WIF", symbolLabel(s, "expanded"))

	s.Info.Symbol = "BONK"
	assert.Equal(t, "$BONK", symbolLabel(s, "expanded"), "prefix added exactly once")
}

func TestImportCounts(t *testing.T) {
	text := "hello Eppcp4FhG6wmaRno3omWWvKsZHbzucVLR316SdXopump world"
	candidates, invalid := importCounts(text)
	assert.Len(t, candidates, 1)
	assert.Equal(t, 2, invalid)

	candidates, invalid = importCounts("nothing here")
	assert.Empty(t, candidates)
	assert.Equal(t, 2, invalid)
}

func TestCycleHelpers(t *testing.T) {
	assert.Equal(t, "mcap", cycleString(sortKeys, "default"))
	assert.Equal(t, "default", cycleString(sortKeys, "24h"), "wraps around")
	assert.Equal(t, "default", cycleString(sortKeys, "bogus"), "unknown resets to first")
	assert.Equal(t, 30, cycleInterval(config.RefreshIntervals, 0))
	assert.Equal(t, 0, cycleInterval(config.RefreshIntervals, 600))
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCleanupKeyChoreography(t *testing.T) {
	prefs := config.Defaults()
	prefs.Mints = []string{"dead", "live"}
	pl := pipeline.New(nil, prefs, "")
	m := initialModel(pl, prefs)

	// With no candidates the D key never enters cleanup mode.
	updated, _ := m.handleKey(keyMsg("D"))
	m = updated.(model)
	assert.False(t, pl.CleanupActive())
	assert.Equal(t, "No inactive tokens to clean up", m.statusMessage)
}

func TestRefreshFailureSurfacesStatus(t *testing.T) {
	prefs := config.Defaults()
	pl := pipeline.New(nil, prefs, "")
	m := initialModel(pl, prefs)

	// A failed periodic refresh must be reported even when prior data is
	// still on screen, not only when the snapshot is empty.
	updated, _ := m.Update(pipeline.Event{
		Type: pipeline.EventRefreshFailed,
		Err:  errors.New("HTTP 500"),
	})
	m = updated.(model)
	assert.False(t, m.loading)
	assert.Contains(t, m.statusMessage, "HTTP 500")
}

func TestManualRefreshResolvesThroughEvents(t *testing.T) {
	prefs := config.Defaults()
	pl := pipeline.New(nil, prefs, "")
	m := initialModel(pl, prefs)

	// A manual refresh that coalesces onto an in-flight one produces no
	// direct result; the completion event still gives feedback.
	m.loading = true
	m.statusMessage = "Refreshing..."

	updated, _ := m.Update(pipeline.Event{Type: pipeline.EventSnapshotUpdated})
	m = updated.(model)
	assert.False(t, m.loading)
	assert.Equal(t, "Updated", m.statusMessage)
}

func TestSearchEscClears(t *testing.T) {
	prefs := config.Defaults()
	pl := pipeline.New(nil, prefs, "")
	m := initialModel(pl, prefs)

	updated, _ := m.handleKey(keyMsg("/"))
	m = updated.(model)
	assert.True(t, m.searching)

	updated, _ = m.handleKey(keyMsg("x"))
	m = updated.(model)
	assert.Equal(t, "x", pl.Search())

	updated, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(model)
	assert.False(t, m.searching)
	assert.Empty(t, pl.Search(), "Esc clears the query entirely")
}
