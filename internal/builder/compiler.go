// Package builder makes sure the native dependency-graph builder is compiled
// before it is invoked.
package builder

import (
	"errors"
	"log/slog"
	"path/filepath"

	"pbuilder/internal/model"
	"pbuilder/internal/runner"
)

// Step is one command of the compile sequence, run inside the builder
// source tree.
type Step struct {
	Name    string
	Command []string
}

// DefaultSteps is the autotools sequence of the builder source tree.
var DefaultSteps = []Step{
	{Name: "bootstrap", Command: []string{"./autogen.sh"}},
	{Name: "configure", Command: []string{"./configure"}},
	{Name: "compile", Command: []string{"make"}},
}

// DefaultBinary is the builder executable name under <source>/src.
const DefaultBinary = "pbuilder"

// Compiler compiles the builder from source when needed.
type Compiler struct {
	runner runner.Runner
	steps  []Step
	binary string
	env    []string
	logger *slog.Logger
}

// NewCompiler returns a Compiler running steps with the child environment env.
// Empty steps or binary fall back to the defaults.
func NewCompiler(r runner.Runner, steps []Step, binary string, env []string, logger *slog.Logger) *Compiler {
	if len(steps) == 0 {
		steps = DefaultSteps
	}
	if binary == "" {
		binary = DefaultBinary
	}
	return &Compiler{runner: r, steps: steps, binary: binary, env: env, logger: logger}
}

// ArtifactPath returns where the compiled builder lives inside builderDir.
func (c *Compiler) ArtifactPath(builderDir string) string {
	return filepath.Join(builderDir, "src", c.binary)
}

// Ready reports whether the builder is already compiled and executable.
func (c *Compiler) Ready(builderDir string) bool {
	return model.IsExecutable(c.ArtifactPath(builderDir))
}

// EnsureBuilder returns the builder artifact, compiling it first if it is
// missing or not executable. The first failing step aborts the sequence;
// nothing is retried.
func (c *Compiler) EnsureBuilder(builderDir string) (model.BuilderArtifact, error) {
	artifact := model.BuilderArtifact{Path: c.ArtifactPath(builderDir)}
	if model.IsExecutable(artifact.Path) {
		c.logger.Debug("Builder already compiled", "path", artifact.Path)
		return artifact, nil
	}

	c.logger.Debug("Building in", "dir", builderDir)
	for _, step := range c.steps {
		if len(step.Command) == 0 {
			continue
		}
		cmd := model.Command{
			Name: step.Command[0],
			Args: step.Command[1:],
			Dir:  builderDir,
			Env:  c.env,
		}
		c.logger.Debug("Executing build step", "step", step.Name, "command", cmd.String())

		res, err := c.runner.Run(cmd)
		if err != nil {
			failed := &CompileFailed{Step: step.Name, ExitCode: res.ExitCode, Output: res.Output, Err: err}
			var cf *runner.CommandFailed
			if errors.As(err, &cf) {
				failed.ExitCode = cf.ExitCode
				failed.Output = cf.Output
			}
			c.logger.Debug("Build step failed", "step", step.Name, "exit_code", failed.ExitCode)
			return model.BuilderArtifact{}, failed
		}
	}

	if !model.IsExecutable(artifact.Path) {
		return model.BuilderArtifact{}, &CompileFailed{Step: "verify", ExitCode: 0, Err: ErrArtifactMissing}
	}
	return artifact, nil
}
