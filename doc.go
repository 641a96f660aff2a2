/*
Package ntrode provides a cyclic execution container that drives a fixed
sequence of pluggable handlers through a small state machine.

The same container can be reused over many independent datasets (one per
acquisition channel, say) with a consistent contract for input acquisition,
processing and output emission. The container knows nothing about what the
handlers compute.

# Concept

An NTrode is created from an ordered list of handler specs. The state machine
is cyclic and has no terminal state:

	OFF -> INIT -> INPUT -> PROCESS -> OUTPUT -> INPUT -> ...

INIT builds, attaches and initialises the handlers. INPUT, PROCESS and OUTPUT
invoke every handler in order with the current state. The handler at position
0 is the input handler and produces or advances the dataset the others read
from the shared memory namespace.

The loop ends when the continuation predicate returns false (or the context is
cancelled); the container is then finalised exactly once. Any error returned
by a Cycle aborts the loop without finalisation.

# Usage

	specs := []domain.HandlerSpec{
		{Kind: "counter", Config: map[string]any{"limit": 100}},
		{Kind: "log", Config: map[string]any{"keys": []any{"item"}}},
	}

	n, err := ntrode.New(specs,
		ntrode.WithName("ch-01"),
		ntrode.WithContinuation(ntrode.UntilExhausted()),
	)
	if err != nil {
		log.Fatal(err)
	}

	// Blocking, in the caller's goroutine:
	if err := n.Run(ctx); err != nil {
		log.Fatal(err)
	}

	// Or isolated in its own goroutine:
	exec, err := n.Start(ctx)
	...
	exec.Stop()
	err = exec.Wait()
*/
package ntrode
