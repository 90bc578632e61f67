package tui

import (
	"pbuilder/internal/orchestrator"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// maxLines bounds the builder output kept in memory.
const maxLines = 5000

// StageRow is the latest known state of one stage.
type StageRow struct {
	Stage  orchestrator.Stage
	State  orchestrator.State
	Seen   bool // False until the first event for the stage arrives
	Detail string
}

// AppModel holds the TUI state.
type AppModel struct {
	// Data
	Stages   []StageRow
	Lines    []string
	Finished bool
	Err      error // Result of the run once Finished

	// UI State
	WindowSize  tea.WindowSizeMsg
	Follow      bool // Keep the output scrolled to the bottom
	Interrupted bool

	// Components
	Spinner        spinner.Model
	OutputViewport viewport.Model
}

// InitialModel returns the initial state.
func InitialModel() AppModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle

	rows := make([]StageRow, 0, len(orchestrator.Stages))
	for _, st := range orchestrator.Stages {
		rows = append(rows, StageRow{Stage: st})
	}

	return AppModel{
		Stages:         rows,
		Follow:         true,
		Spinner:        s,
		OutputViewport: viewport.New(80, 20),
	}
}
