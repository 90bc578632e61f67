package runner

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pbuilder/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sh(script string) model.Command {
	return model.Command{Name: "sh", Args: []string{"-c", script}}
}

func TestRunCapturesCombinedOutput(t *testing.T) {
	res, err := NewExecutor().Run(sh("echo out; echo err 1>&2"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.ElementsMatch(t, []string{"out", "err"}, res.Output)
}

func TestRunNonZeroExit(t *testing.T) {
	res, err := NewExecutor().Run(sh("echo broken; exit 3"))
	require.Error(t, err)

	var failed *CommandFailed
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, 3, failed.ExitCode)
	assert.Equal(t, []string{"broken"}, failed.Output)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestRunMissingBinary(t *testing.T) {
	_, err := NewExecutor().Run(model.Command{Name: filepath.Join(t.TempDir(), "nope")})

	var failed *CommandFailed
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, -1, failed.ExitCode)
}

func TestRunUsesCommandDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)

	cmd := sh(`pwd; echo "$PBUILDER_PROBE"`)
	cmd.Dir = dir
	cmd.Env = []string{"PATH=" + os.Getenv("PATH"), "PBUILDER_PROBE=visible"}

	res, err := NewExecutor().Run(cmd)
	require.NoError(t, err)
	require.Len(t, res.Output, 2)

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, resolved, res.Output[0])
	assert.Equal(t, "visible", res.Output[1])

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, after, "running a child must not move the parent")
}

func TestStreamRelaysLinesInOrder(t *testing.T) {
	var buf bytes.Buffer
	code, err := NewExecutor().Stream(sh("echo one; echo two 1>&2; echo three"), &buf)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "one\ntwo\nthree\n", buf.String())
}

func TestStreamReturnsExitCode(t *testing.T) {
	var buf bytes.Buffer
	code, err := NewExecutor().Stream(sh("echo building; exit 7"), &buf)
	require.NoError(t, err)
	assert.Equal(t, 7, code)
	assert.Equal(t, "building\n", buf.String())
}

func TestStreamUnterminatedLastLine(t *testing.T) {
	var buf bytes.Buffer
	code, err := NewExecutor().Stream(sh("printf 'partial'"), &buf)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "partial\n", buf.String())
}

func TestStreamVeryLongLine(t *testing.T) {
	var buf bytes.Buffer
	code, err := NewExecutor().Stream(sh("echo before; head -c 1100000 /dev/zero | tr '\\0' x; echo; echo after"), &buf)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "before", lines[0])
	assert.Equal(t, strings.Repeat("x", 1100000), lines[1])
	assert.Equal(t, "after", lines[2])
}

func TestStreamStripsCarriageReturn(t *testing.T) {
	var buf bytes.Buffer
	code, err := NewExecutor().Stream(sh(`printf 'one\r\ntwo\n'`), &buf)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "one\ntwo\n", buf.String())
}

func TestStreamStartFailure(t *testing.T) {
	var buf bytes.Buffer
	code, err := NewExecutor().Stream(model.Command{Name: filepath.Join(t.TempDir(), "nope")}, &buf)
	require.Error(t, err)
	assert.Equal(t, -1, code)
	assert.Empty(t, buf.String())
}

func TestRunSeparateStderr(t *testing.T) {
	var stderr bytes.Buffer
	cmd := sh(`echo '{"a":{}}'; echo 'make: warning' 1>&2`)
	cmd.Stderr = &stderr

	res, err := NewExecutor().Run(cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"a":{}}`}, res.Output)
	assert.Equal(t, "make: warning\n", stderr.String())
}
