package deps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pbuilder/internal/model"
	"pbuilder/internal/runner"
	"pbuilder/internal/runner/runnertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var showInfo = model.Command{Name: "make", Args: []string{"-s", "--no-print-directory", "show-info"}}

func TestGenerateScenario(t *testing.T) {
	fake := runnertest.New().On("make", runnertest.Response{
		Output: []string{`{"a": {"name": "a", "dependencies": ["b"]},`, ` "x": {"dependencies": []}}`},
	})
	out := filepath.Join(t.TempDir(), ".pbuilder.deps")

	m, err := NewGenerator(fake, showInfo, discardLogger()).Generate(out)
	require.NoError(t, err)
	assert.Len(t, m, 1)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a: b\n", string(data))

	require.Len(t, fake.Calls, 1)
	assert.Equal(t, showInfo.Args, fake.Calls[0].Args)
	assert.NotNil(t, fake.Calls[0].Stderr, "query stderr must not be mixed into the JSON")
}

func TestGenerateIsIdempotent(t *testing.T) {
	manifest := []string{`{
		"busybox": {"name": "busybox", "dependencies": ["host-skeleton", "skeleton", "toolchain"]},
		"skeleton": {"name": "skeleton", "dependencies": ["host-skeleton"]},
		"toolchain": {"name": "toolchain"},
		"host-skeleton": {"name": "host-skeleton", "dependencies": []},
		"rootfs-common": {}
	}`}
	fake := runnertest.New().On("make", runnertest.Response{Output: manifest})
	gen := NewGenerator(fake, showInfo, discardLogger())
	out := filepath.Join(t.TempDir(), ".pbuilder.deps")

	_, err := gen.Generate(out)
	require.NoError(t, err)
	first, err := os.ReadFile(out)
	require.NoError(t, err)

	_, err = gen.Generate(out)
	require.NoError(t, err)
	second, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t,
		"busybox: host-skeleton skeleton toolchain\n"+
			"host-skeleton: \n"+
			"skeleton: host-skeleton\n"+
			"toolchain: \n",
		string(first))
}

func TestGenerateQueryExitFailure(t *testing.T) {
	fake := runnertest.New().On("make", runnertest.Response{
		ExitCode: 2,
		Output:   []string{"make: *** No rule to make target 'show-info'.  Stop."},
	})
	out := filepath.Join(t.TempDir(), ".pbuilder.deps")

	_, err := NewGenerator(fake, showInfo, discardLogger()).Generate(out)

	var qf *QueryFailed
	require.True(t, errors.As(err, &qf))
	assert.Equal(t, []string{"make: *** No rule to make target 'show-info'.  Stop."}, qf.Output)
	var cf *runner.CommandFailed
	require.True(t, errors.As(err, &cf))
	assert.Equal(t, 2, cf.ExitCode)

	_, statErr := os.Stat(out)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no file is written when the query fails")
}

func TestGenerateQueryGarbage(t *testing.T) {
	fake := runnertest.New().On("make", runnertest.Response{Output: []string{"this is not json"}})
	out := filepath.Join(t.TempDir(), ".pbuilder.deps")
	require.NoError(t, os.WriteFile(out, []byte("keep: me\n"), 0o644))

	_, err := NewGenerator(fake, showInfo, discardLogger()).Generate(out)

	var qf *QueryFailed
	require.True(t, errors.As(err, &qf))
	data, readErr := os.ReadFile(out)
	require.NoError(t, readErr)
	assert.Equal(t, "keep: me\n", string(data), "a failed query leaves the previous file alone")
}

func TestGenerateWriteFailure(t *testing.T) {
	fake := runnertest.New().On("make", runnertest.Response{Output: []string{`{"a": {"name": "a"}}`}})
	out := filepath.Join(t.TempDir(), "no-such-dir", ".pbuilder.deps")

	_, err := NewGenerator(fake, showInfo, discardLogger()).Generate(out)

	var wf *WriteFailed
	assert.True(t, errors.As(err, &wf))
}
