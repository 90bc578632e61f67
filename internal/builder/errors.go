package builder

import (
	"errors"
	"fmt"
)

// ErrArtifactMissing is reported when every step succeeded but the builder
// executable is still absent or not executable.
var ErrArtifactMissing = errors.New("builder executable missing after compile")

// CompileFailed identifies the build step that stopped the compile sequence.
type CompileFailed struct {
	Step     string
	ExitCode int
	Output   []string
	Err      error
}

func (e *CompileFailed) Error() string {
	return fmt.Sprintf("compile step %q failed: %v", e.Step, e.Err)
}

func (e *CompileFailed) Unwrap() error {
	return e.Err
}
