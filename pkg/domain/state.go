package domain

// State is a node of the cyclic state machine driven by the container.
type State string

const (
	StateOff     State = "OFF"     // Initial state, no action bound
	StateInit    State = "INIT"    // Handlers are built and initialised
	StateInput   State = "INPUT"   // Input handler produces/advances the dataset
	StateProcess State = "PROCESS" // Handlers process the current item
	StateOutput  State = "OUTPUT"  // Handlers emit results
)

// States lists the closed state set in cycle order.
var States = []State{StateOff, StateInit, StateInput, StateProcess, StateOutput}

// Valid reports whether s belongs to the closed state set.
func (s State) Valid() bool {
	switch s {
	case StateOff, StateInit, StateInput, StateProcess, StateOutput:
		return true
	}
	return false
}

func (s State) String() string {
	return string(s)
}
