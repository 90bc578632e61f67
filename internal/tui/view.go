package tui

import (
	"fmt"
	"strings"

	"pbuilder/internal/model"
	"pbuilder/internal/orchestrator"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")). // Sky Blue/Cyan
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	outputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63"))
)

func (m AppModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("pbuilder"))
	b.WriteString("\n\n")

	for _, row := range m.Stages {
		b.WriteString(m.renderStage(row))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(outputStyle.Render(m.OutputViewport.View()))
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m AppModel) renderStage(row StageRow) string {
	name := fmt.Sprintf("%-16s", row.Stage)
	if !row.Seen {
		return dimStyle.Render(model.IconPending + " " + name)
	}

	detail := row.Detail
	if w := m.WindowSize.Width - 22; w > 10 {
		if r := []rune(detail); len(r) > w {
			detail = "…" + string(r[len(r)-w+1:])
		}
	}

	switch row.State {
	case orchestrator.Started:
		if m.Finished {
			return runningStyle.Render(model.IconRunning+" "+name) + " " + detail
		}
		return m.Spinner.View() + " " + runningStyle.Render(name) + " " + detail
	case orchestrator.Done:
		return doneStyle.Render(model.IconDone+" "+name) + " " + detail
	case orchestrator.Skipped:
		return dimStyle.Render(model.IconSkipped + " " + name + " up to date")
	case orchestrator.Failed:
		return failedStyle.Render(model.IconFailed+" "+name) + " " + detail
	}
	return name
}

func (m AppModel) footer() string {
	follow := "off"
	if m.Follow {
		follow = "on"
	}
	keys := fmt.Sprintf("↑/↓ scroll • f follow (%s) • ", follow)

	switch {
	case !m.Finished:
		return dimStyle.Render(keys + "ctrl+c abandon")
	case m.Err != nil:
		return failedStyle.Render("Run failed") + dimStyle.Render(" • "+keys+"q quit")
	default:
		return doneStyle.Render("Run complete") + dimStyle.Render(" • "+keys+"q quit")
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.Spinner.Tick
}
