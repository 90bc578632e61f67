// Package runnertest provides a recording runner.Runner for tests of
// components that launch child processes.
package runnertest

import (
	"fmt"
	"io"

	"pbuilder/internal/model"
	"pbuilder/internal/runner"
)

// Response scripts the outcome of every command with a given name.
type Response struct {
	ExitCode int
	Output   []string
	StartErr error // Simulates a command that cannot be launched

	// OnRun is called before the outcome is returned, e.g. to create the
	// artifact a build step would have produced.
	OnRun func(cmd model.Command)
}

// Fake records every invocation and answers from Responses. A response
// keyed by the full command line (Command.String) wins over one keyed by
// Command.Name. Unknown commands succeed with no output.
type Fake struct {
	Responses map[string]Response
	Calls     []model.Command
	Streamed  []model.Command
}

func New() *Fake {
	return &Fake{Responses: make(map[string]Response)}
}

// On scripts the response for key, a command name or a full command line,
// and returns f for chaining.
func (f *Fake) On(key string, r Response) *Fake {
	f.Responses[key] = r
	return f
}

func (f *Fake) lookup(cmd model.Command) Response {
	if r, ok := f.Responses[cmd.String()]; ok {
		return r
	}
	return f.Responses[cmd.Name]
}

// Names lists the names of all commands run so far, in invocation order.
func (f *Fake) Names() []string {
	names := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		names = append(names, c.Name)
	}
	return names
}

func (f *Fake) Run(cmd model.Command) (model.RunResult, error) {
	f.Calls = append(f.Calls, cmd)
	resp := f.lookup(cmd)
	if resp.OnRun != nil {
		resp.OnRun(cmd)
	}

	if resp.StartErr != nil {
		return model.RunResult{ExitCode: -1}, &runner.CommandFailed{Command: cmd, ExitCode: -1, Err: resp.StartErr}
	}
	result := model.RunResult{ExitCode: resp.ExitCode, Output: resp.Output}
	if resp.ExitCode != 0 {
		return result, &runner.CommandFailed{
			Command:  cmd,
			ExitCode: resp.ExitCode,
			Output:   resp.Output,
			Err:      fmt.Errorf("exit status %d", resp.ExitCode),
		}
	}
	return result, nil
}

func (f *Fake) Stream(cmd model.Command, w io.Writer) (int, error) {
	f.Calls = append(f.Calls, cmd)
	f.Streamed = append(f.Streamed, cmd)
	resp := f.lookup(cmd)
	if resp.OnRun != nil {
		resp.OnRun(cmd)
	}

	if resp.StartErr != nil {
		return -1, fmt.Errorf("start %s: %w", cmd.Name, resp.StartErr)
	}
	for _, line := range resp.Output {
		fmt.Fprintln(w, line)
	}
	return resp.ExitCode, nil
}
