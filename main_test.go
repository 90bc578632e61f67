package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const settingsYAML = `
query:
  - sh
  - -c
  - 'printf ''{"a": {"name": "a", "dependencies": ["b"]}, "x": {"dependencies": []}}'''
`

const builderScript = `#!/bin/sh
echo "args: $*"
echo "config: $BR2_CONFIG"
cat "$2"
`

func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	workDir := filepath.Join(root, "buildroot")
	builderDir := filepath.Join(root, "pbuilder")
	require.NoError(t, os.MkdirAll(filepath.Join(builderDir, "src"), 0o755))
	require.NoError(t, os.MkdirAll(workDir, 0o755))

	configPath := filepath.Join(workDir, ".config")
	require.NoError(t, os.WriteFile(configPath, []byte("BR2_HAVE_DOT_CONFIG=y\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(workDir, ".pbuilder.yaml"), []byte(settingsYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(builderDir, "src", "pbuilder"), []byte(builderScript), 0o755))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-w", workDir, configPath, filepath.Join(workDir, "output", "build"), builderDir}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	depsPath := filepath.Join(workDir, ".pbuilder.deps")
	data, err := os.ReadFile(depsPath)
	require.NoError(t, err)
	assert.Equal(t, "a: b\n", string(data))

	assert.Equal(t, "args: -f "+depsPath+"\nconfig: "+configPath+"\na: b\n", stdout.String())
	assert.Contains(t, stderr.String(), "ensure-builder  up to date")
}

func TestRunMissingConfig(t *testing.T) {
	root := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := run([]string{"-w", root, filepath.Join(root, ".config"), root, filepath.Join(root, "pbuilder")}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "validate-config failed (ConfigNotFound)")
	assert.NotContains(t, stderr.String(), "level=ERROR")
	assert.Equal(t, 1, strings.Count(stderr.String(), "\n"), "one diagnostic line: %q", stderr.String())
	assert.Empty(t, stdout.String())
	_, err := os.Stat(filepath.Join(root, ".pbuilder.deps"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"only-one"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: pbuilder")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"--no-such-flag"}, &stdout, &stderr))

	stderr.Reset()
	assert.Equal(t, 0, run([]string{"--help"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "--loglevel")
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-V"}, &stdout, &stderr))
	assert.True(t, strings.HasPrefix(stdout.String(), "pbuilder version "))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	quiet := newLogger(0, &buf)
	assert.False(t, quiet.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, quiet.Enabled(context.Background(), slog.LevelError))

	verbose := newLogger(3, &buf)
	assert.True(t, verbose.Enabled(context.Background(), slog.LevelDebug))
}
