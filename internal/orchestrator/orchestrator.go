// Package orchestrator sequences a pbuilder run: validate the build
// configuration, make sure the builder is compiled, make sure the
// dependency file is current, then run the builder and relay its output.
// Each stage either succeeds or ends the run with a StageError.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"pbuilder/internal/builder"
	"pbuilder/internal/config"
	"pbuilder/internal/deps"
	"pbuilder/internal/model"
	"pbuilder/internal/runner"
)

// Orchestrator runs the stages against one Config.
type Orchestrator struct {
	cfg     *config.Config
	runner  runner.Runner
	logger  *slog.Logger
	out     io.Writer
	observe Observer
	baseEnv []string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers fn to receive stage events.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		o.observe = fn
	}
}

// WithBaseEnv sets the environment child environments are derived from.
// The default is os.Environ().
func WithBaseEnv(env []string) Option {
	return func(o *Orchestrator) {
		o.baseEnv = env
	}
}

// New returns an Orchestrator relaying the builder's output to out.
func New(cfg *config.Config, r runner.Runner, logger *slog.Logger, out io.Writer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		runner:  r,
		logger:  logger,
		out:     out,
		observe: func(Event) {},
		baseEnv: os.Environ(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes every stage in order and stops at the first failure, which is
// returned as a *StageError. Artifacts produced by completed stages are left
// in place so the next run can skip them.
func (o *Orchestrator) Run() error {
	env := o.cfg.ChildEnv(o.baseEnv)
	compiler := builder.NewCompiler(o.runner, o.cfg.Steps(), o.cfg.Settings.Binary, env, o.logger)

	o.logger.Debug("Run configuration",
		"br2_config", o.cfg.BuildConfig.Path,
		"build_dir", o.cfg.BuildDir,
		"builder_binary", compiler.ArtifactPath(o.cfg.BuilderDir),
		"deps_file", o.cfg.DepsFilePath(),
	)

	if err := o.validateConfig(); err != nil {
		return err
	}
	artifact, err := o.ensureBuilder(compiler)
	if err != nil {
		return err
	}
	if err := o.ensureDeps(env); err != nil {
		return err
	}
	return o.invoke(artifact, env)
}

func (o *Orchestrator) validateConfig() error {
	o.emit(Event{Stage: StageValidateConfig, State: Started, Detail: o.cfg.BuildConfig.Path})
	if !o.cfg.BuildConfig.Exists() {
		return o.fail(StageValidateConfig, ConfigNotFound, 0,
			fmt.Errorf("failed to find build config file: %s", o.cfg.BuildConfig.Path))
	}
	o.emit(Event{Stage: StageValidateConfig, State: Done, Detail: o.cfg.BuildConfig.Path})
	return nil
}

func (o *Orchestrator) ensureBuilder(compiler *builder.Compiler) (model.BuilderArtifact, error) {
	path := compiler.ArtifactPath(o.cfg.BuilderDir)

	if compiler.Ready(o.cfg.BuilderDir) {
		o.emit(Event{Stage: StageEnsureBuilder, State: Skipped, Detail: path})
		return model.BuilderArtifact{Path: path}, nil
	}

	o.emit(Event{Stage: StageEnsureBuilder, State: Started, Detail: "compiling " + o.cfg.BuilderDir})
	artifact, err := compiler.EnsureBuilder(o.cfg.BuilderDir)
	if err != nil {
		code := 0
		var cf *builder.CompileFailed
		if errors.As(err, &cf) {
			code = cf.ExitCode
		}
		return model.BuilderArtifact{}, o.fail(StageEnsureBuilder, BuildFailed, code, err)
	}
	o.emit(Event{Stage: StageEnsureBuilder, State: Done, Detail: artifact.Path})
	return artifact, nil
}

func (o *Orchestrator) ensureDeps(env []string) error {
	path := o.cfg.DepsFilePath()

	reason, err := o.depsOutdated(path)
	if err != nil {
		return o.fail(StageEnsureDeps, DepsFailed, 0, err)
	}
	if reason == "" {
		o.logger.Debug("No need to update the dependencies file")
		o.emit(Event{Stage: StageEnsureDeps, State: Skipped, Detail: path})
		return nil
	}

	o.emit(Event{Stage: StageEnsureDeps, State: Started, Detail: "regenerating (" + reason + ")"})
	gen := deps.NewGenerator(o.runner, o.cfg.QueryCommand(env), o.logger)
	manifest, err := gen.Generate(path)
	if err != nil {
		code := 0
		var cf *runner.CommandFailed
		if errors.As(err, &cf) {
			code = cf.ExitCode
		}
		return o.fail(StageEnsureDeps, DepsFailed, code, err)
	}
	o.emit(Event{Stage: StageEnsureDeps, State: Done, Detail: fmt.Sprintf("%s (%d packages)", path, len(manifest))})
	return nil
}

// depsOutdated returns why the dependency file at path must be regenerated,
// or "" when it can be reused.
func (o *Orchestrator) depsOutdated(path string) (string, error) {
	if !model.IsRegularFile(path) {
		o.logger.Debug("Dependencies file not found...", "path", path)
		return "missing", nil
	}

	if o.logger.Enabled(context.Background(), slog.LevelDebug) {
		cfgTime, _ := o.cfg.BuildConfig.ModTime()
		depsTime := time.Time{}
		if info, err := os.Stat(path); err == nil {
			depsTime = info.ModTime()
		}
		o.logger.Debug("Modification times", "config", cfgTime.Format(time.ANSIC), "deps", depsTime.Format(time.ANSIC))
	}

	stale, err := deps.IsStale(o.cfg.BuildConfig.Path, path)
	if err != nil {
		return "", err
	}
	if stale {
		o.logger.Debug("Dependencies file is too old. Generating it again...")
		return "stale", nil
	}

	if _, err := deps.ReadFile(path); err != nil {
		o.logger.Warn("Dependencies file unreadable, generating it again", "error", err)
		return "unreadable", nil
	}
	return "", nil
}

func (o *Orchestrator) invoke(artifact model.BuilderArtifact, env []string) error {
	cmd := model.Command{
		Name: artifact.Path,
		Args: o.cfg.BuilderArgs(),
		Dir:  o.cfg.WorkDir,
		Env:  env,
	}
	o.emit(Event{Stage: StageInvoke, State: Started, Detail: cmd.String()})
	o.logger.Debug("Executing", "command", cmd.String())

	code, err := o.runner.Stream(cmd, o.out)
	if err != nil {
		return o.fail(StageInvoke, ExecFailed, -1, err)
	}
	if code != 0 {
		return o.fail(StageInvoke, ExecFailed, code, fmt.Errorf("%s exited with status %d", artifact.Path, code))
	}
	o.emit(Event{Stage: StageInvoke, State: Done})
	return nil
}

func (o *Orchestrator) fail(stage Stage, kind Kind, code int, err error) error {
	serr := &StageError{Stage: stage, Kind: kind, ExitCode: code, Err: err}
	// The observer renders the failure; the log keeps the details.
	o.logger.Debug("Stage failed", "stage", string(stage), "kind", string(kind), "error", err)
	o.emit(Event{Stage: stage, State: Failed, Err: serr})
	return serr
}

func (o *Orchestrator) emit(e Event) {
	o.observe(e)
}
