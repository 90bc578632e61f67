package orchestrator

import (
	"errors"
	"fmt"

	"pbuilder/internal/builder"
	"pbuilder/internal/deps"
	"pbuilder/internal/runner"
)

// Kind classifies a terminal failure.
type Kind string

const (
	ConfigNotFound Kind = "ConfigNotFound"
	BuildFailed    Kind = "BuildFailed"
	DepsFailed     Kind = "DepsFailed"
	ExecFailed     Kind = "ExecFailed"
)

// StageError is the single terminal error of a run.
type StageError struct {
	Stage    Stage
	Kind     Kind
	ExitCode int // Child exit code, when a child failed
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Output returns the captured child output behind the failure, if any.
func (e *StageError) Output() []string {
	var cf *builder.CompileFailed
	if errors.As(e.Err, &cf) {
		return cf.Output
	}
	var qf *deps.QueryFailed
	if errors.As(e.Err, &qf) {
		return qf.Output
	}
	var rf *runner.CommandFailed
	if errors.As(e.Err, &rf) {
		return rf.Output
	}
	return nil
}

// ExitCode maps the result of Run to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
