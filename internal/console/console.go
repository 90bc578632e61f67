// Package console prints stage progress and the terminal failure diagnostic
// for non-interactive runs.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pbuilder/internal/model"
	"pbuilder/internal/orchestrator"
)

// maxOutputLines caps how much captured child output a failure shows.
const maxOutputLines = 40

// Printer renders orchestrator events as one line each.
type Printer struct {
	w io.Writer

	runningStyle lipgloss.Style
	doneStyle    lipgloss.Style
	skippedStyle lipgloss.Style
	failedStyle  lipgloss.Style
	outputStyle  lipgloss.Style
}

// New returns a Printer writing to w. Colors are only emitted when w is a
// terminal.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:            w,
		runningStyle: r.NewStyle().Foreground(lipgloss.Color("81")).Bold(true), // Sky Blue/Cyan
		doneStyle:    r.NewStyle().Foreground(lipgloss.Color("42")),
		skippedStyle: r.NewStyle().Foreground(lipgloss.Color("240")), // Grey
		failedStyle:  r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		outputStyle: r.NewStyle().
			Foreground(lipgloss.Color("245")).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("208")). // Orange
			PaddingLeft(1),
	}
}

// Observe implements orchestrator.Observer.
func (p *Printer) Observe(e orchestrator.Event) {
	switch e.State {
	case orchestrator.Started:
		if e.Stage == orchestrator.StageValidateConfig {
			return
		}
		p.line(p.runningStyle, model.IconRunning, e.Stage, e.Detail)
	case orchestrator.Done:
		p.line(p.doneStyle, model.IconDone, e.Stage, e.Detail)
	case orchestrator.Skipped:
		p.line(p.skippedStyle, model.IconSkipped, e.Stage, "up to date: "+e.Detail)
	case orchestrator.Failed:
		p.Failure(e.Err)
	}
}

// Failure prints the diagnostic line for err followed by the captured child
// output, if any.
func (p *Printer) Failure(err error) {
	var serr *orchestrator.StageError
	if !errors.As(err, &serr) {
		fmt.Fprintln(p.w, p.failedStyle.Render(model.IconFailed+" "+err.Error()))
		return
	}

	fmt.Fprintln(p.w, p.failedStyle.Render(fmt.Sprintf("%s %s failed (%s): %v", model.IconFailed, serr.Stage, serr.Kind, serr.Err)))
	if out := serr.Output(); len(out) > 0 {
		fmt.Fprintln(p.w, p.outputStyle.Render(strings.Join(Tail(out, maxOutputLines), "\n")))
	}
}

func (p *Printer) line(style lipgloss.Style, icon string, stage orchestrator.Stage, detail string) {
	text := icon + " " + string(stage)
	if detail != "" {
		text += "  " + detail
	}
	fmt.Fprintln(p.w, style.Render(text))
}

// Tail returns the last n lines, prefixed by a marker when some were dropped.
func Tail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	dropped := len(lines) - n
	out := make([]string, 0, n+1)
	out = append(out, fmt.Sprintf("... %d earlier lines omitted", dropped))
	return append(out, lines[dropped:]...)
}
