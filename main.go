package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"pbuilder/internal/config"
	"pbuilder/internal/console"
	"pbuilder/internal/model"
	"pbuilder/internal/orchestrator"
	"pbuilder/internal/runner"
	"pbuilder/internal/tui"

	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
)

func checkUpdate(w io.Writer, currentVer string, explicit bool) {
	githubTag := &latest.GithubTag{
		Owner:      "paguilar",
		Repository: "pbuilder",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Fprintf(w, "\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Fprintln(w, "👉 Download it from https://github.com/paguilar/pbuilder/releases")
	} else if explicit {
		fmt.Fprintf(w, "✅ You are using the latest version: %s\n", currentVer)
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, executes the requested mode and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("pbuilder", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pbuilder [options] <build_config> <build_dir> <pbuilder_sources>\n\n")
		fmt.Fprintf(stderr, "pbuilder compiles the parallel graph builder if needed, derives the package\n")
		fmt.Fprintf(stderr, "dependency file from the build system and runs the builder against it.\n\n")
		fmt.Fprintf(stderr, "Arguments:\n")
		fmt.Fprintf(stderr, "  build_config       BR2_CONFIG: the path to the Buildroot .config file\n")
		fmt.Fprintf(stderr, "  build_dir          BUILD_DIR: the path where packages are extracted and built\n")
		fmt.Fprintf(stderr, "  pbuilder_sources   Parallel graph builder sources path\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  pbuilder .config output/build ../pbuilder          # Build with default settings\n")
		fmt.Fprintf(stderr, "  pbuilder -l 2 -c 8 .config output/build ../pbuilder # Verbose, 8 build jobs\n")
		fmt.Fprintf(stderr, "  pbuilder --tui .config output/build ../pbuilder     # Follow progress interactively\n")
	}

	logLevel := flags.IntP("loglevel", "l", 0, "Enable/Disable log level, forwarded to the builder. Default: 0 (disabled)")
	cpus := flags.IntP("cpu", "c", 0, "Max number of CPUs the builder uses. Default: 0 (auto-detect)")
	depsFile := flags.StringP("deps-file", "d", "", "Dependency file path (default .pbuilder.deps in the work dir)")
	workDir := flags.StringP("workdir", "w", "", "Directory the build system is queried from (default: current directory)")
	settingsPath := flags.StringP("settings", "s", "", "Settings file (default .pbuilder.yaml in the work dir, if present)")
	envFile := flags.StringP("env-file", "e", "", "Dotenv file with extra variables for every child process")
	tuiFlag := flags.BoolP("tui", "t", false, "Follow stages and builder output in an interactive view")
	versionFlag := flags.BoolP("version", "V", false, "Print version information")
	updateFlag := flags.BoolP("update", "u", false, "Check for latest version")
	helpFlag := flags.BoolP("help", "h", false, "Show this help message")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *helpFlag {
		flags.Usage()
		return 0
	}

	if *versionFlag {
		fmt.Fprintf(stdout, "pbuilder version %s\n", model.Version)
		return 0
	}

	if *updateFlag {
		checkUpdate(stdout, model.Version, true)
		return 0
	}

	if flags.NArg() != 3 {
		flags.Usage()
		return 2
	}

	cfg, err := config.New(config.Options{
		ConfigPath:   flags.Arg(0),
		BuildDir:     flags.Arg(1),
		BuilderDir:   flags.Arg(2),
		WorkDir:      *workDir,
		DepsFile:     *depsFile,
		SettingsPath: *settingsPath,
		EnvFilePath:  *envFile,
		LogLevel:     *logLevel,
		CPUs:         *cpus,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *tuiFlag {
		return runTuiMode(cfg, stderr)
	}
	return runConsoleMode(cfg, stdout, stderr)
}

func runConsoleMode(cfg *config.Config, stdout, stderr io.Writer) int {
	logger := newLogger(cfg.LogLevel, stderr)
	logger.Debug("Setting log level to debugging")

	printer := console.New(stderr)
	o := orchestrator.New(cfg, runner.NewExecutor(), logger, stdout, orchestrator.WithObserver(printer.Observe))
	return orchestrator.ExitCode(o.Run())
}

func runTuiMode(cfg *config.Config, stderr io.Writer) int {
	err := tui.Run(func(out io.Writer, observe orchestrator.Observer) error {
		// Logs share the output pane; the alternate screen owns the terminal.
		logger := newLogger(cfg.LogLevel, out)
		o := orchestrator.New(cfg, runner.NewExecutor(), logger, out, orchestrator.WithObserver(observe))
		return o.Run()
	})
	if err != nil {
		console.New(stderr).Failure(err)
	}
	return orchestrator.ExitCode(err)
}

// newLogger creates the single logger of a run. Any non-zero log level
// enables debug diagnostics.
func newLogger(logLevel int, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if logLevel != 0 {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
