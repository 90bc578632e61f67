package runner

import (
	"fmt"

	"pbuilder/internal/model"
)

// CommandFailed is returned by Run when the child exits non-zero or cannot
// be started at all (ExitCode -1).
type CommandFailed struct {
	Command  model.Command
	ExitCode int
	Output   []string
	Err      error
}

func (e *CommandFailed) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
}

func (e *CommandFailed) Unwrap() error {
	return e.Err
}
