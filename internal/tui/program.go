package tui

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"pbuilder/internal/orchestrator"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrInterrupted is returned by Run when the user leaves the view before the
// run has finished.
var ErrInterrupted = errors.New("interrupted before the run finished")

// StartFunc runs the orchestrator, relaying builder output to out and stage
// events to observe.
type StartFunc func(out io.Writer, observe orchestrator.Observer) error

// Run shows the follow view while start executes on its own goroutine and
// returns start's result once the user quits.
func Run(start StartFunc) error {
	p := tea.NewProgram(InitialModel(), tea.WithAltScreen())

	out := NewLineWriter(p.Send)
	go func() {
		err := start(out, func(e orchestrator.Event) { p.Send(MsgEvent(e)) })
		out.Flush()
		p.Send(MsgFinished{Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	m := final.(AppModel)
	if m.Interrupted {
		return ErrInterrupted
	}
	return m.Err
}

// LineWriter turns written bytes into one MsgLine per complete line.
type LineWriter struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	partial []byte
}

func NewLineWriter(send func(tea.Msg)) *LineWriter {
	return &LineWriter{send: send}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(w.partial[:i], []byte("\r"))
		w.send(MsgLine(line))
		w.partial = w.partial[i+1:]
	}
	return len(p), nil
}

// Flush sends a trailing line that was never terminated.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.partial) > 0 {
		w.send(MsgLine(w.partial))
		w.partial = nil
	}
}
