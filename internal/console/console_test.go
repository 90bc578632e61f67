package console

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"pbuilder/internal/builder"
	"pbuilder/internal/orchestrator"

	"github.com/stretchr/testify/assert"
)

func TestObserveProgress(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Observe(orchestrator.Event{Stage: orchestrator.StageValidateConfig, State: orchestrator.Started})
	p.Observe(orchestrator.Event{Stage: orchestrator.StageValidateConfig, State: orchestrator.Done, Detail: "/br/.config"})
	p.Observe(orchestrator.Event{Stage: orchestrator.StageEnsureBuilder, State: orchestrator.Skipped, Detail: "/pb/src/pbuilder"})
	p.Observe(orchestrator.Event{Stage: orchestrator.StageInvoke, State: orchestrator.Started, Detail: "/pb/src/pbuilder -f .pbuilder.deps"})

	assert.Equal(t,
		"✓ validate-config  /br/.config\n"+
			"↷ ensure-builder  up to date: /pb/src/pbuilder\n"+
			"▸ invoke  /pb/src/pbuilder -f .pbuilder.deps\n",
		buf.String())
}

func TestFailureShowsStageAndOutput(t *testing.T) {
	var buf bytes.Buffer
	err := &orchestrator.StageError{
		Stage: orchestrator.StageEnsureBuilder,
		Kind:  orchestrator.BuildFailed,
		Err: &builder.CompileFailed{
			Step:     "configure",
			ExitCode: 1,
			Output:   []string{"checking for glib-2.0... no", "configure: error: glib-2.0 not found"},
			Err:      errors.New("exit status 1"),
		},
	}

	New(&buf).Failure(err)

	out := buf.String()
	assert.Contains(t, out, `ensure-builder failed (BuildFailed): compile step "configure" failed: exit status 1`)
	assert.Contains(t, out, "configure: error: glib-2.0 not found")
}

func TestFailurePlainError(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Failure(errors.New("boom"))
	assert.Equal(t, "✗ boom\n", buf.String())
}

func TestTail(t *testing.T) {
	lines := make([]string, 50)
	for i := range lines {
		lines[i] = fmt.Sprint(i)
	}

	got := Tail(lines, 10)
	assert.Len(t, got, 11)
	assert.Equal(t, "... 40 earlier lines omitted", got[0])
	assert.Equal(t, "49", got[10])
	assert.Equal(t, lines[:3], Tail(lines[:3], 10))
}
