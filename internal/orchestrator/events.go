package orchestrator

// Stage names a step of a run.
type Stage string

const (
	StageValidateConfig Stage = "validate-config"
	StageEnsureBuilder  Stage = "ensure-builder"
	StageEnsureDeps     Stage = "ensure-deps"
	StageInvoke         Stage = "invoke"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageValidateConfig, StageEnsureBuilder, StageEnsureDeps, StageInvoke}

// State is the progress of a stage.
type State int

const (
	Started State = iota
	Skipped       // Nothing to do, the artifact was already in place
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Started:
		return "started"
	case Skipped:
		return "skipped"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Event reports a stage transition to an Observer.
type Event struct {
	Stage  Stage
	State  State
	Detail string
	Err    error
}

// Observer receives every Event of a run, in order, on the run's goroutine.
type Observer func(Event)
