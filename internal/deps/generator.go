package deps

import (
	"bytes"
	"log/slog"
	"strings"

	"pbuilder/internal/model"
	"pbuilder/internal/runner"
)

// Generator queries the build system for its package manifest and writes the
// dependency file.
type Generator struct {
	runner runner.Runner
	query  model.Command
	logger *slog.Logger
}

// NewGenerator returns a Generator that runs query to obtain the manifest.
func NewGenerator(r runner.Runner, query model.Command, logger *slog.Logger) *Generator {
	return &Generator{runner: r, query: query, logger: logger}
}

// Query runs the manifest query and decodes its stdout. The query's stderr is
// kept out of the JSON and only surfaces in the debug log.
func (g *Generator) Query() (model.Manifest, error) {
	var stderr bytes.Buffer
	cmd := g.query
	cmd.Stderr = &stderr

	g.logger.Debug("Querying package manifest", "command", cmd.String(), "dir", cmd.Dir)
	res, err := g.runner.Run(cmd)
	if stderr.Len() > 0 {
		g.logger.Debug("Manifest query stderr", "output", strings.TrimSpace(stderr.String()))
	}
	if err != nil {
		output := res.Output
		if stderr.Len() > 0 {
			output = append(output, strings.Split(strings.TrimRight(stderr.String(), "\n"), "\n")...)
		}
		return nil, &QueryFailed{Err: err, Output: output}
	}

	manifest, err := Decode([]byte(strings.Join(res.Output, "\n")), g.logger)
	if err != nil {
		return nil, &QueryFailed{Err: err}
	}
	return manifest, nil
}

// Generate queries the manifest and overwrites outputPath with it. The
// returned manifest is what was written.
func (g *Generator) Generate(outputPath string) (model.Manifest, error) {
	g.logger.Debug("Generating dependency tree...", "file", outputPath)

	manifest, err := g.Query()
	if err != nil {
		return nil, err
	}

	analysis := Analyze(manifest)
	for _, d := range analysis.Diagnostics {
		g.logger.Warn(d)
	}
	g.logger.Debug("Dependency graph", "packages", analysis.Packages, "edges", analysis.Edges)

	if err := WriteFile(outputPath, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}
