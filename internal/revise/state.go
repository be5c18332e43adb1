package revise

import "fmt"

// State is the position of a stage in its revision loop.
type State int

const (
	StateGenerated  State = iota // A candidate was produced
	StateValidating              // The candidate is being decoded and checked
	StateRevising                // Issues remain and attempts are left
	StateAccepted                // The candidate passed validation
	StateExhausted               // Issues remain and no attempts are left
)

// String returns the lower-case name used in logs and events.
func (s State) String() string {
	switch s {
	case StateGenerated:
		return "generated"
	case StateValidating:
		return "validating"
	case StateRevising:
		return "revising"
	case StateAccepted:
		return "accepted"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal reports whether the loop ends in this state.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateExhausted
}

// MarshalText renders the state by name in JSON and slog output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// validTransitions defines the explicit allow-list of state transitions.
var validTransitions = map[State]map[State]bool{
	StateGenerated: {
		StateValidating: true,
	},
	StateValidating: {
		StateAccepted:  true,
		StateRevising:  true,
		StateExhausted: true,
	},
	StateRevising: {
		StateGenerated: true,
	},
}

// Transition validates whether a state transition from → to is allowed.
func Transition(from, to State) error {
	if validTransitions[from][to] {
		return nil
	}
	return fmt.Errorf("invalid revision transition: %s → %s", from, to)
}
