package ntrode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/memory"
)

// Initialise builds and attaches the handlers, runs the Initialise hook and
// initialises every handler. A container still in OFF or INIT is then moved to
// INPUT, as if the INIT transition had been taken.
func (n *NTrode) Initialise(ctx context.Context) error {
	if err := n.initialise(ctx); err != nil {
		return err
	}
	switch n.machine.Current() {
	case domain.StateOff, domain.StateInit:
		n.machine.Force(domain.StateInput)
	}
	return nil
}

// initialise is the action bound to INIT.
func (n *NTrode) initialise(ctx context.Context) error {
	specs, ok := memory.Lookup[[]domain.HandlerSpec](n.mem, domain.KeyInitHandlers)
	if !ok || len(specs) == 0 {
		return fmt.Errorf("%w: %s missing from memory", domain.ErrNoHandlers, domain.KeyInitHandlers)
	}

	if err := n.pipeline.Build(ctx, specs, n, n.factory); err != nil {
		return err
	}
	n.logger.Debug("handlers attached", "count", n.pipeline.Len())

	if n.custom.Initialise != nil {
		if err := n.custom.Initialise(ctx, n); err != nil {
			return fmt.Errorf("initialise hook: %w", err)
		}
	}

	if err := n.pipeline.InitialiseAll(ctx); err != nil {
		return err
	}

	if n.debug {
		fmt.Fprintf(n.debugOut, "\n%s\n\n", n.mem)
	}
	return nil
}

// InvokeHandlers calls every handler with the current state, in pipeline order.
// The handler at position 0 is the input handler by convention.
func (n *NTrode) InvokeHandlers(ctx context.Context) error {
	return n.pipeline.Invoke(ctx, n.machine.Current())
}

// Cycle runs the action of the current state and advances the state machine once.
// domain.ErrUnknownState is fatal: the state is left unchanged and callers
// must not keep cycling.
func (n *NTrode) Cycle(ctx context.Context) error {
	from := n.machine.Current()
	if n.hooks.OnStateEnter != nil {
		n.hooks.OnStateEnter(ctx, &domain.StateEvent{
			EventBase: n.event(),
			State:     from,
			Cycle:     n.cycles,
		})
	}

	start := time.Now()
	err := n.machine.Cycle(ctx)
	if err == nil {
		n.cycles++
	}

	if n.hooks.OnCycle != nil {
		n.hooks.OnCycle(ctx, &domain.CycleEvent{
			EventBase: n.event(),
			From:      from,
			To:        n.machine.Current(),
			Cycle:     n.cycles,
			Duration:  time.Since(start),
			Err:       err,
		})
	}

	if errors.Is(err, domain.ErrUnknownState) {
		n.logger.Error("state machine corrupted", "state", from, "err", err)
	}
	return err
}

// Run cycles in the caller's goroutine while the continuation predicate holds
// and ctx is not done, then finalises exactly once.
// A failing Cycle aborts the loop without finalisation and its error is returned.
func (n *NTrode) Run(ctx context.Context) error {
	if !n.running.CompareAndSwap(false, true) {
		return domain.ErrAlreadyRunning
	}
	defer n.running.Store(false)
	return n.loop(ctx)
}

func (n *NTrode) loop(ctx context.Context) error {
	n.logger.Debug("loop started", "state", n.machine.Current())
	for n.proceed(ctx) {
		if err := n.Cycle(ctx); err != nil {
			n.logger.Debug("loop aborted", "state", n.machine.Current(), "err", err)
			return err
		}
	}
	n.logger.Debug("loop stopped", "cycles", n.cycles)
	// Finalisation must still reach the handlers when ctx was what stopped the loop.
	return n.Finalise(context.WithoutCancel(ctx))
}

func (n *NTrode) proceed(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if n.maxCycles > 0 && n.cycles >= n.maxCycles {
		return false
	}
	if n.continuation == nil {
		return true
	}
	return n.continuation(ctx, n)
}

// Finalise finalises every handler in order, then runs the Finalise hook.
func (n *NTrode) Finalise(ctx context.Context) error {
	err := n.pipeline.FinaliseAll(ctx)
	if err == nil && n.custom.Finalise != nil {
		if hookErr := n.custom.Finalise(ctx, n); hookErr != nil {
			err = fmt.Errorf("finalise hook: %w", hookErr)
		}
	}

	if n.hooks.OnFinalise != nil {
		n.hooks.OnFinalise(ctx, &domain.FinaliseEvent{
			EventBase: n.event(),
			Cycles:    n.cycles,
			Memory:    n.mem.String(),
			Err:       err,
		})
	}
	return err
}

// Reset runs the Reset hook, restores the memory to its constructed state and
// forces the state machine back to OFF. Handlers are not rebuilt until the next
// Initialise (or the next pass through INIT).
func (n *NTrode) Reset(ctx context.Context) error {
	if n.custom.Reset != nil {
		if err := n.custom.Reset(ctx, n); err != nil {
			return fmt.Errorf("reset hook: %w", err)
		}
	}
	n.mem.Reset()
	n.machine.Force(domain.StateOff)
	n.cycles = 0
	return nil
}

func (n *NTrode) observeInvoke(ctx context.Context, index int, kind string, state domain.State, elapsed time.Duration, err error) {
	if n.hooks.OnHandlerInvoke == nil {
		return
	}
	n.hooks.OnHandlerInvoke(ctx, &domain.HandlerEvent{
		EventBase: n.event(),
		Index:     index,
		Kind:      kind,
		State:     state,
		Duration:  elapsed,
		Err:       err,
	})
}

func (n *NTrode) event() domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), NTrode: n.name}
}
