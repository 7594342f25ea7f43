package tui

import (
	"context"
	"fmt"
	"time"

	"solfavs/pkg/config"
	"solfavs/pkg/models"
	"solfavs/pkg/pipeline"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

var sortKeys = []string{"default", "mcap", "graduatedAt", "1h", "6h", "24h"}

var mcapBuckets = []string{"all", "under_1m", "1m_10m", "10m_100m", "over_100m"}

var graduationBuckets = []string{
	"all", "not_graduated", "graduated_1d", "graduated_3d",
	"graduated_7d", "graduated_30d", "graduated_over_30d",
}

func statusCmd() tea.Cmd {
	return tea.Tick(time.Second*2, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// refreshCmd kicks a refresh; completion and failure both surface through
// pipeline events, so a call that coalesces onto an in-flight refresh
// still resolves with feedback.
func (m model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.pl.Refresh(context.Background())
		return nil
	}
}

// importCmd parses free text for mints, tracks the new ones and fetches
// their snapshots in one shot.
func (m model) importCmd(text string) tea.Cmd {
	return func() tea.Msg {
		candidates, invalid := importCounts(text)
		if len(candidates) == 0 {
			return mintsAddedMsg{invalid: invalid}
		}
		added, duplicates := m.pl.AddMints(candidates)
		msg := mintsAddedMsg{added: len(added), duplicates: duplicates, invalid: invalid}
		if len(added) > 0 {
			msg.fetchErr = m.pl.FetchAndPrepend(context.Background(), added)
		}
		return msg
	}
}

func readClipboardCmd(forced bool) tea.Cmd {
	return func() tea.Msg {
		text, err := clipboard.ReadAll()
		return clipboardReadMsg{text: text, err: err, forced: forced}
	}
}

func clipboardTickCmd() tea.Cmd {
	return tea.Tick(clipboardPollInterval, func(time.Time) tea.Msg {
		return clipboardTickMsg{}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case pipeline.Event:
		// Re-arm the listener on the same subscription.
		cmds = append(cmds, listenForPipeline(m.sub))

		switch msg.Type {
		case pipeline.EventSnapshotUpdated:
			if m.loading {
				m.statusMessage = "Updated"
				cmds = append(cmds, statusCmd())
			}
			m.loading = false
		case pipeline.EventRefreshFailed:
			m.loading = false
			if msg.Err != nil {
				m.statusMessage = fmt.Sprintf("Refresh failed: %v", msg.Err)
				cmds = append(cmds, statusCmd())
			}
		case pipeline.EventTokenRemoved:
			m.clampCursor()
		}
		if m.showDetail {
			m.updateDetailViewport()
		}

	case mintsAddedMsg:
		m.loading = false
		switch {
		case msg.added > 0:
			m.statusMessage = fmt.Sprintf("Added %d token(s), %d duplicate(s), %d invalid", msg.added, msg.duplicates, msg.invalid)
			m.cursor = 0
		case msg.duplicates > 0:
			m.statusMessage = fmt.Sprintf("Already tracked: %d duplicate(s)", msg.duplicates)
		default:
			m.statusMessage = "No mint addresses found"
		}
		if msg.fetchErr != nil {
			m.statusMessage = fmt.Sprintf("Added, but fetch failed: %v", msg.fetchErr)
		}
		cmds = append(cmds, statusCmd())

	case clipboardTickMsg:
		if m.clipboardWatch {
			if !m.clipboardBusy {
				m.clipboardBusy = true
				cmds = append(cmds, readClipboardCmd(false))
			}
			cmds = append(cmds, clipboardTickCmd())
		}

	case clipboardReadMsg:
		m.clipboardBusy = false
		if msg.err != nil {
			// Report a denied clipboard once per toggle; the watch flag
			// stays on.
			if !m.clipboardErrSeen {
				m.clipboardErrSeen = true
				m.statusMessage = fmt.Sprintf("Clipboard read failed: %v", msg.err)
				cmds = append(cmds, statusCmd())
			}
			break
		}
		if msg.text == m.lastClipboard && !msg.forced {
			break
		}
		m.lastClipboard = msg.text
		if candidates, _ := importCounts(msg.text); len(candidates) > 0 || msg.forced {
			cmds = append(cmds, m.importCmd(msg.text))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 6

	case tea.KeyMsg:
		return m.handleKey(msg)

	case uiTickMsg:
		cmds = append(cmds, tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }))

	case clearStatusMsg:
		m.statusMessage = ""
	}

	if m.loading {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	key := msg.String()

	if m.adding {
		switch key {
		case "esc":
			m.adding = false
			m.addInput.Reset()
			return m, nil
		case "enter":
			text := m.addInput.Value()
			m.adding = false
			m.addInput.Reset()
			m.loading = true
			return m, tea.Batch(m.importCmd(text), m.spinner.Tick)
		}
		var cmd tea.Cmd
		m.addInput, cmd = m.addInput.Update(msg)
		return m, cmd
	}

	if m.searching {
		switch key {
		case "esc":
			m.searching = false
			m.searchInput.Reset()
			m.pl.SetSearch("")
			m.cursor = 0
			return m, nil
		case "enter":
			m.searching = false
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.pl.SetSearch(m.searchInput.Value())
		m.cursor = 0
		return m, cmd
	}

	if m.showHelp {
		if key == "q" || key == "esc" || key == "?" {
			m.showHelp = false
		}
		return m, nil
	}

	if m.showDetail {
		switch key {
		case "q", "esc", "backspace":
			m.showDetail = false
			return m, nil
		case "o":
			return m.openSelected()
		case "c":
			return m.copySelected()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// Cleanup mode is a confirmation prompt: confirm keys delete, any
	// other key backs out untouched.
	if m.pl.CleanupActive() {
		switch key {
		case "enter", "D", "y":
			removed := m.pl.ConfirmCleanup()
			m.statusMessage = fmt.Sprintf("Removed %d inactive token(s)", removed)
			m.clampCursor()
			return m, statusCmd()
		default:
			m.pl.CancelCleanup()
			m.statusMessage = "Cleanup cancelled"
			return m, statusCmd()
		}
	}

	if key == "?" {
		m.showHelp = true
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "a":
		m.adding = true
		m.addInput.Focus()
		return m, nil

	case "/":
		m.searching = true
		m.searchInput.SetValue(m.pl.Search())
		m.searchInput.Focus()
		return m, nil

	case "r":
		m.loading = true
		m.statusMessage = "Refreshing..."
		cmds = append(cmds, m.refreshCmd(), m.spinner.Tick, statusCmd())

	case "s":
		sort := m.pl.Sort()
		m.pl.SetSort(cycleString(sortKeys, sort.By), sort.Direction)
		m.cursor = 0
	case "S":
		sort := m.pl.Sort()
		direction := "desc"
		if sort.Direction == "desc" {
			direction = "asc"
		}
		m.pl.SetSort(sort.By, direction)
		m.cursor = 0

	case "f":
		filter := m.pl.Filter()
		m.pl.SetFilter(cycleString(mcapBuckets, filter.Mcap), filter.Graduation)
		m.cursor = 0
	case "g":
		filter := m.pl.Filter()
		m.pl.SetFilter(filter.Mcap, cycleString(graduationBuckets, filter.Graduation))
		m.cursor = 0

	case "m":
		if m.pl.Display() == "mcap" {
			m.pl.SetDisplay("price")
		} else {
			m.pl.SetDisplay("mcap")
		}

	case "v":
		if m.density == "compact" {
			m.density = "expanded"
		} else {
			m.density = "compact"
		}
		density := m.density
		m.pl.UpdatePrefs(func(p *config.Preferences) { p.View = density })

	case "t":
		if m.theme == "dark" {
			m.theme = "light"
		} else {
			m.theme = "dark"
		}
		theme := m.theme
		m.pl.UpdatePrefs(func(p *config.Preferences) { p.Theme = theme })
		m.styles = newPalette(m.style, m.theme)

	case "y":
		m.style = cycleString(config.StyleOptions, m.style)
		style := m.style
		m.pl.UpdatePrefs(func(p *config.Preferences) { p.Style = style })
		m.styles = newPalette(m.style, m.theme)
		m.statusMessage = fmt.Sprintf("Style: %s", m.style)
		cmds = append(cmds, statusCmd())

	case "w":
		m.clipboardWatch = !m.clipboardWatch
		m.clipboardErrSeen = false
		watch := m.clipboardWatch
		m.pl.UpdatePrefs(func(p *config.Preferences) { p.ClipboardWatch = watch })
		if m.clipboardWatch {
			m.statusMessage = "Clipboard watch on"
			cmds = append(cmds, clipboardTickCmd())
		} else {
			m.statusMessage = "Clipboard watch off"
		}
		cmds = append(cmds, statusCmd())

	case "p":
		if !m.clipboardBusy {
			m.clipboardBusy = true
			cmds = append(cmds, readClipboardCmd(true))
		}

	case "i":
		next := cycleInterval(config.RefreshIntervals, m.pl.Prefs().RefreshIntervalSeconds)
		m.pl.SetInterval(next)
		m.statusMessage = fmt.Sprintf("Refresh interval: %s", intervalLabel(next))
		cmds = append(cmds, statusCmd())

	case "D":
		count := m.pl.EnterCleanup()
		if count == 0 {
			m.statusMessage = "No inactive tokens to clean up"
			cmds = append(cmds, statusCmd())
		} else {
			m.cursor = 0
		}

	case "c":
		return m.copySelected()

	case "x":
		if s, ok := m.selected(); ok {
			if m.pl.Remove(s.Mint) {
				m.statusMessage = "Removed " + symbolLabel(s, "compact")
				m.clampCursor()
				cmds = append(cmds, statusCmd())
			}
		}

	case "o":
		return m.openSelected()

	case "enter":
		if _, ok := m.selected(); ok {
			m.showDetail = true
			m.updateDetailViewport()
			m.viewport.YOffset = 0
		}

	case "down", "j", "tab", "right", "l":
		if n := len(m.pl.VisibleList(time.Now())); n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
	case "up", "k", "shift+tab", "left", "h":
		if n := len(m.pl.VisibleList(time.Now())); n > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = n - 1
			}
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *model) clampCursor() {
	n := len(m.pl.VisibleList(time.Now()))
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m model) selected() (s models.TokenSnapshot, ok bool) {
	visible := m.pl.VisibleList(time.Now())
	if m.cursor < 0 || m.cursor >= len(visible) {
		return s, false
	}
	return visible[m.cursor], true
}

func (m model) copySelected() (tea.Model, tea.Cmd) {
	s, ok := m.selected()
	if !ok {
		return m, nil
	}
	if err := clipboard.WriteAll(s.Mint); err != nil {
		m.statusMessage = "Failed to copy to clipboard"
	} else {
		m.statusMessage = "Mint copied to clipboard"
	}
	return m, statusCmd()
}

func (m model) openSelected() (tea.Model, tea.Cmd) {
	s, ok := m.selected()
	if !ok {
		return m, nil
	}
	if err := openBrowser(axiomURL(s.Mint)); err != nil {
		m.statusMessage = fmt.Sprintf("Failed to open browser: %v", err)
	} else {
		m.statusMessage = "Opened in browser"
	}
	return m, statusCmd()
}
