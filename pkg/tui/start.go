package tui

import (
	"fmt"
	"os"

	"solfavs/pkg/config"
	"solfavs/pkg/pipeline"

	tea "github.com/charmbracelet/bubbletea"
)

func Start(pl *pipeline.Pipeline, prefs config.Preferences, version string) {
	Version = version
	p := tea.NewProgram(
		initialModel(pl, prefs),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
