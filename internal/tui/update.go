package tui

import (
	"strings"

	"pbuilder/internal/orchestrator"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// MsgEvent carries a stage transition from the orchestrator.
type MsgEvent orchestrator.Event

// MsgLine carries one line of builder output.
type MsgLine string

// MsgFinished indicates that the run has completed.
type MsgFinished struct {
	Err error
}

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.OutputViewport.Width = msg.Width - 4
		m.OutputViewport.Height = msg.Height - len(m.Stages) - 8 // title, stage list, borders, footer
		if m.OutputViewport.Height < 3 {
			m.OutputViewport.Height = 3
		}
		m.syncViewport()
		return m, nil

	case MsgEvent:
		m.applyEvent(orchestrator.Event(msg))
		return m, nil

	case MsgLine:
		m.Lines = append(m.Lines, string(msg))
		if len(m.Lines) > maxLines {
			m.Lines = m.Lines[len(m.Lines)-maxLines:]
		}
		m.syncViewport()
		return m, nil

	case MsgFinished:
		m.Finished = true
		m.Err = msg.Err
		return m, nil

	case spinner.TickMsg:
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.Interrupted = !m.Finished
			return m, tea.Quit
		case "q", "esc":
			// The builder cannot be cancelled, so quitting waits for the run.
			if m.Finished {
				return m, tea.Quit
			}
			return m, nil
		case "f":
			m.Follow = !m.Follow
			if m.Follow {
				m.OutputViewport.GotoBottom()
			}
			return m, nil
		case "up", "k", "pgup", "b":
			m.Follow = false
		case "G", "end":
			m.Follow = true
			m.OutputViewport.GotoBottom()
			return m, nil
		}
		m.OutputViewport, cmd = m.OutputViewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *AppModel) applyEvent(e orchestrator.Event) {
	for i := range m.Stages {
		if m.Stages[i].Stage != e.Stage {
			continue
		}
		m.Stages[i].State = e.State
		m.Stages[i].Seen = true
		if e.Detail != "" {
			m.Stages[i].Detail = e.Detail
		}
		if e.State == orchestrator.Failed && e.Err != nil {
			m.Stages[i].Detail = e.Err.Error()
		}
		return
	}
}

func (m *AppModel) syncViewport() {
	m.OutputViewport.SetContent(strings.Join(m.Lines, "\n"))
	if m.Follow {
		m.OutputViewport.GotoBottom()
	}
}
