package domain

import (
	"context"
	"time"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	NTrode    string    `json:"ntrode"`
}

// StateEvent is fired when the container enters a state, before its action runs.
type StateEvent struct {
	EventBase
	State State  `json:"state"`
	Cycle uint64 `json:"cycle"`
}

// CycleEvent is fired after a Cycle call returns.
type CycleEvent struct {
	EventBase
	From     State         `json:"from"`
	To       State         `json:"to"`
	Cycle    uint64        `json:"cycle"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// HandlerEvent is fired after a handler Invoke returns.
type HandlerEvent struct {
	EventBase
	Index    int           `json:"index"`
	Kind     string        `json:"kind"`
	State    State         `json:"state"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// FinaliseEvent is fired once the container has finalised.
type FinaliseEvent struct {
	EventBase
	Cycles uint64 `json:"cycles"`
	Memory string `json:"memory"` // Rendered memory namespace at finalisation
	Err    error  `json:"-"`
}

// LifecycleHooks defines callbacks for container observability.
// Hooks are called synchronously from the container's own goroutine and never
// influence control flow.
type LifecycleHooks struct {
	OnStateEnter    func(context.Context, *StateEvent)
	OnCycle         func(context.Context, *CycleEvent)
	OnHandlerInvoke func(context.Context, *HandlerEvent)
	OnFinalise      func(context.Context, *FinaliseEvent)
}

// Merge combines hooks so that each callback of h runs before the matching one of other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStateEnter:    chain(h.OnStateEnter, other.OnStateEnter),
		OnCycle:         chain(h.OnCycle, other.OnCycle),
		OnHandlerInvoke: chain(h.OnHandlerInvoke, other.OnHandlerInvoke),
		OnFinalise:      chain(h.OnFinalise, other.OnFinalise),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
