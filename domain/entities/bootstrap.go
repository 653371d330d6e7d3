package entities

const (
	// DefaultArgument is the value handed to the entry operation when none is configured.
	DefaultArgument = "rustwasm/wasm-bindgen"

	// DefaultEntryPoint is the guest export invoked by the runner.
	DefaultEntryPoint = "run"

	// SuccessMessage is emitted once the entry operation has completed.
	SuccessMessage = "module has run"
)

// Stage identifies the step of the bootstrap sequence an error came from.
type Stage string

const (
	StageLoad   Stage = "load"
	StageInvoke Stage = "invoke"
)

// State is the position of a runner in the bootstrap sequence.
// Transitions only move forward: Idle, Loading, Invoking, Done.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateInvoking
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateInvoking:
		return "invoking"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of a run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)
