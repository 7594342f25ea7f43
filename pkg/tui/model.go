package tui

import (
	"time"

	"solfavs/pkg/config"
	"solfavs/pkg/pipeline"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version is set by Start()
var Version = "dev"

const clipboardPollInterval = 2 * time.Second

// --- Messages ---

type clearStatusMsg struct{}
type uiTickMsg time.Time
type clipboardTickMsg struct{}

type clipboardReadMsg struct {
	text   string
	err    error
	forced bool
}

type mintsAddedMsg struct {
	added      int
	duplicates int
	invalid    int
	fetchErr   error
}

// --- Model ---

type model struct {
	pl  *pipeline.Pipeline
	sub pipeline.Subscriber

	width  int
	height int

	loading       bool
	spinner       spinner.Model
	statusMessage string
	cursor        int

	theme          string
	density        string
	style          string
	clipboardWatch bool

	adding      bool
	addInput    textinput.Model
	searching   bool
	searchInput textinput.Model

	showDetail bool
	viewport   viewport.Model
	showHelp   bool

	clipboardBusy    bool
	lastClipboard    string
	clipboardErrSeen bool

	styles palette
}

func initialModel(pl *pipeline.Pipeline, prefs config.Preferences) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	addTi := textinput.New()
	addTi.Placeholder = "paste one or more mint addresses"
	addTi.Width = 60

	searchTi := textinput.New()
	searchTi.Placeholder = "search mint or symbol"
	searchTi.Width = 40

	vp := viewport.New(0, 0)

	return model{
		pl:             pl,
		sub:            pl.Subscribe(),
		loading:        true,
		spinner:        s,
		theme:          prefs.Theme,
		density:        prefs.View,
		style:          prefs.Style,
		clipboardWatch: prefs.ClipboardWatch,
		addInput:       addTi,
		searchInput:    searchTi,
		viewport:       vp,
		styles:         newPalette(prefs.Style, prefs.Theme),
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		listenForPipeline(m.sub),
		m.spinner.Tick,
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }),
	}
	if m.clipboardWatch {
		cmds = append(cmds, tea.Tick(clipboardPollInterval, func(time.Time) tea.Msg {
			return clipboardTickMsg{}
		}))
	}
	return tea.Batch(cmds...)
}
