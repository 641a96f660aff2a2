package domain

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the root of every construction and configuration failure.
var ErrConfiguration = errors.New("configuration error")

// ErrNoHandlers is returned when a container is created without handler specs.
var ErrNoHandlers = fmt.Errorf("%w: handler spec list is empty", ErrConfiguration)

// ErrUnknownKind is returned when a handler spec names a kind nobody registered.
var ErrUnknownKind = fmt.Errorf("%w: unknown handler kind", ErrConfiguration)

// ErrUnknownState is returned when the current state has no transition entry.
// It is fatal: the loop aborts without finalisation.
var ErrUnknownState = errors.New("unknown state")

// ErrAlreadyRunning is returned when Run or Start is called on a container whose loop is active.
var ErrAlreadyRunning = errors.New("container already running")

// ErrExecutionPanic is returned by Execution.Wait when the execution unit panicked.
var ErrExecutionPanic = errors.New("execution unit panicked")

// Phase names the handler lifecycle step that failed.
type Phase string

const (
	PhaseBuild      Phase = "build"
	PhaseAttach     Phase = "attach"
	PhaseInitialise Phase = "initialise"
	PhaseInvoke     Phase = "invoke"
	PhaseFinalise   Phase = "finalise"
)

// HandlerError wraps a failure raised by a handler.
type HandlerError struct {
	Index int    // Position in the pipeline
	Kind  string // Kind from the handler spec
	Phase Phase
	State State // Set for PhaseInvoke only
	Err   error
}

func (e *HandlerError) Error() string {
	if e.Phase == PhaseInvoke {
		return fmt.Sprintf("handler %d (%s) %s %s: %v", e.Index, e.Kind, e.Phase, e.State, e.Err)
	}
	return fmt.Sprintf("handler %d (%s) %s: %v", e.Index, e.Kind, e.Phase, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
