// Package config holds the runtime configuration of a pbuilder run: the
// positional paths from the command line, the optional .pbuilder.yaml
// settings file and the environment handed to every child process.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pbuilder/internal/builder"
	"pbuilder/internal/model"
)

const (
	// SettingsFile is looked up in the work directory when no --settings is given
	SettingsFile = ".pbuilder.yaml"

	// DefaultDepsFile is the dependency file name, relative to the work directory
	DefaultDepsFile = ".pbuilder.deps"
)

// DefaultQuery asks the build system for its package manifest as JSON.
var DefaultQuery = []string{"make", "-s", "--no-print-directory", "show-info"}

// StepConfig declares one compile step in the settings file.
type StepConfig struct {
	Name    string   `yaml:"name"`
	Command []string `yaml:"command"`
}

// Settings models .pbuilder.yaml.
type Settings struct {
	DepsFile string            `yaml:"deps_file,omitempty"`
	Binary   string            `yaml:"binary,omitempty"`
	Query    []string          `yaml:"query,omitempty"`
	Compile  []StepConfig      `yaml:"compile,omitempty"`
	Env      map[string]string `yaml:"env,omitempty"`
}

func defaultSettings() Settings {
	steps := make([]StepConfig, 0, len(builder.DefaultSteps))
	for _, s := range builder.DefaultSteps {
		steps = append(steps, StepConfig{Name: s.Name, Command: s.Command})
	}
	return Settings{
		DepsFile: DefaultDepsFile,
		Binary:   builder.DefaultBinary,
		Query:    DefaultQuery,
		Compile:  steps,
	}
}

// Config holds everything a run needs.
type Config struct {
	BuildConfig model.BuildConfig // BR2_CONFIG
	BuildDir    string            // BUILD_DIR
	BuilderDir  string            // builder sources
	WorkDir     string            // where the manifest query runs (TOPDIR)

	LogLevel int
	CPUs     int

	Settings Settings
	EnvFile  map[string]string
}

// Options are the raw command-line inputs to New.
type Options struct {
	ConfigPath   string
	BuildDir     string
	BuilderDir   string
	WorkDir      string
	DepsFile     string
	SettingsPath string
	EnvFilePath  string
	LogLevel     int
	CPUs         int
}

// New validates opts, loads the settings and env files and returns the
// resulting Config. Paths are made absolute so child processes running in
// other directories see the same files.
func New(opts Options) (*Config, error) {
	if opts.ConfigPath == "" || opts.BuildDir == "" || opts.BuilderDir == "" {
		return nil, errors.New("config: build config path, build dir and builder source path are required")
	}
	if opts.CPUs < 0 {
		return nil, fmt.Errorf("config: invalid cpu count %d", opts.CPUs)
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}

	cfg := &Config{
		BuildConfig: model.BuildConfig{Path: absPath(opts.ConfigPath)},
		BuildDir:    absPath(opts.BuildDir),
		BuilderDir:  absPath(opts.BuilderDir),
		WorkDir:     absPath(workDir),
		LogLevel:    opts.LogLevel,
		CPUs:        opts.CPUs,
	}

	settingsPath := opts.SettingsPath
	required := settingsPath != ""
	if !required {
		settingsPath = filepath.Join(cfg.WorkDir, SettingsFile)
	}
	settings, err := LoadSettings(model.ExpandTilde(settingsPath), required)
	if err != nil {
		return nil, err
	}
	if opts.DepsFile != "" {
		settings.DepsFile = opts.DepsFile
	}
	cfg.Settings = settings

	if opts.EnvFilePath != "" {
		env, err := LoadEnvFile(model.ExpandTilde(opts.EnvFilePath))
		if err != nil {
			return nil, err
		}
		cfg.EnvFile = env
	}

	return cfg, nil
}

// LoadSettings reads a settings file on top of the defaults. A missing file
// yields the defaults unless required is set.
func LoadSettings(path string, required bool) (Settings, error) {
	settings := defaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("config: read settings: %w", err)
	}

	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Settings{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if parsed.DepsFile != "" {
		settings.DepsFile = parsed.DepsFile
	}
	if parsed.Binary != "" {
		settings.Binary = parsed.Binary
	}
	if len(parsed.Query) > 0 {
		settings.Query = parsed.Query
	}
	if len(parsed.Compile) > 0 {
		for i, step := range parsed.Compile {
			if len(step.Command) == 0 {
				return Settings{}, fmt.Errorf("config: %s: compile step %d (%q) has no command", path, i+1, step.Name)
			}
			if step.Name == "" {
				parsed.Compile[i].Name = step.Command[0]
			}
		}
		settings.Compile = parsed.Compile
	}
	settings.Env = parsed.Env
	return settings, nil
}

// LoadEnvFile parses a dotenv file without touching the process environment.
func LoadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("config: read env file: %w", err)
	}
	return env, nil
}

// DepsFilePath returns the absolute dependency file path.
func (c *Config) DepsFilePath() string {
	path := model.ExpandTilde(c.Settings.DepsFile)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.WorkDir, path)
}

// Steps returns the compile sequence in builder form.
func (c *Config) Steps() []builder.Step {
	steps := make([]builder.Step, 0, len(c.Settings.Compile))
	for _, s := range c.Settings.Compile {
		steps = append(steps, builder.Step{Name: s.Name, Command: s.Command})
	}
	return steps
}

// QueryCommand returns the manifest query, run in the work directory.
func (c *Config) QueryCommand(env []string) model.Command {
	return model.Command{
		Name: c.Settings.Query[0],
		Args: c.Settings.Query[1:],
		Dir:  c.WorkDir,
		Env:  env,
	}
}

// BuilderArgs returns the arguments passed to the builder executable.
func (c *Config) BuilderArgs() []string {
	args := []string{"-f", c.DepsFilePath()}
	if c.LogLevel != 0 {
		args = append(args, "-l", fmt.Sprint(c.LogLevel))
	}
	if c.CPUs > 0 {
		args = append(args, "-c", fmt.Sprint(c.CPUs))
	}
	return args
}

// ChildEnv builds the environment of every child process from base (usually
// os.Environ()). The builder reads its paths from these variables, so they
// are set explicitly per child instead of on the parent process. Later
// sources win: base, the build paths, settings env, then the env file.
func (c *Config) ChildEnv(base []string) []string {
	overrides := map[string]string{
		"BR2_CONFIG": c.BuildConfig.Path,
		"CONFIG_DIR": filepath.Dir(c.BuildConfig.Path),
		"BUILD_DIR":  c.BuildDir,
		"TOPDIR":     c.WorkDir,
	}
	for k, v := range c.Settings.Env {
		overrides[k] = v
	}
	for k, v := range c.EnvFile {
		overrides[k] = v
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, e := range base {
		key, _, _ := strings.Cut(e, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		env = append(env, e)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}

func absPath(path string) string {
	path = model.ExpandTilde(path)
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
