package display

import "fmt"

// SpinnerState represents the current state of the spinner finite state machine.
type SpinnerState int

const (
	StateIdle       SpinnerState = iota // Nothing in flight
	StateGenerating                     // Waiting on a generation call
	StateRevising                       // Waiting on a revision call
	StateCompletion                     // Run completed
	StateError                          // Run failed
)

// String returns a human-readable name for the state.
func (s SpinnerState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateGenerating:
		return "Generating"
	case StateRevising:
		return "Revising"
	case StateCompletion:
		return "Completion"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Busy reports whether a backend call is in flight.
func (s SpinnerState) Busy() bool {
	return s == StateGenerating || s == StateRevising
}

// validTransitions defines the explicit allow-list of state transitions.
var validTransitions = map[SpinnerState]map[SpinnerState]bool{
	StateIdle: {
		StateGenerating: true,
		StateIdle:       true,
		StateCompletion: true,
		StateError:      true,
	},
	StateGenerating: {
		StateIdle:       true,
		StateRevising:   true,
		StateGenerating: true,
		StateError:      true,
	},
	StateRevising: {
		StateIdle:       true,
		StateRevising:   true,
		StateGenerating: true,
		StateError:      true,
	},
	StateCompletion: {
		StateIdle: true,
	},
	StateError: {
		StateIdle: true,
	},
}

// Transition validates whether a state transition from → to is allowed.
func Transition(from, to SpinnerState) error {
	if targets, ok := validTransitions[from]; ok {
		if targets[to] {
			return nil
		}
	}
	return fmt.Errorf("invalid spinner transition: %s → %s", from, to)
}

// spinnerFSM tracks the spinner state. Invalid transitions are ignored and
// leave the state unchanged.
type spinnerFSM struct {
	state SpinnerState
}

// GoTo moves to the target state if allowed and reports whether it did.
func (f *spinnerFSM) GoTo(to SpinnerState) bool {
	if Transition(f.state, to) != nil {
		return false
	}
	f.state = to
	return true
}

// State returns the current state.
func (f *spinnerFSM) State() SpinnerState {
	return f.state
}
