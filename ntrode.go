package ntrode

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/aretw0/ntrode/internal/logging"
	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/handlers"
	"github.com/aretw0/ntrode/pkg/memory"
	"github.com/aretw0/ntrode/pkg/pipeline"
	"github.com/aretw0/ntrode/pkg/statemachine"
	"github.com/google/uuid"
)

// NTrode is a cyclic execution container.
// It owns a memory namespace, a handler pipeline built from declarative specs
// and the cyclic state machine that drives the pipeline.
// An NTrode is not safe for concurrent use; run it with Run in one goroutine or
// hand it to Start.
type NTrode struct {
	name  string
	debug bool

	debugOut     io.Writer
	logger       *slog.Logger
	factory      pipeline.Factory
	hooks        domain.LifecycleHooks
	custom       Hooks
	continuation Continuation
	maxCycles    uint64
	tableFn      func(statemachine.Actions) statemachine.Table

	mem      *memory.Namespace
	machine  *statemachine.Machine
	pipeline *pipeline.Pipeline

	cycles  uint64
	running atomic.Bool
}

// Continuation decides whether the loop runs another cycle.
type Continuation func(ctx context.Context, n *NTrode) bool

// Hooks are container specific steps run around the generic lifecycle.
type Hooks struct {
	// Initialise runs after the handlers are built and attached, before they are initialised.
	Initialise func(ctx context.Context, n *NTrode) error
	// Finalise runs after every handler was finalised.
	Finalise func(ctx context.Context, n *NTrode) error
	// Reset runs before the memory is reset.
	Reset func(ctx context.Context, n *NTrode) error
}

// Option defines a functional option for configuring the NTrode.
type Option func(*NTrode)

// WithName sets the identifier of the container.
func WithName(name string) Option {
	return func(n *NTrode) {
		n.name = name
	}
}

// WithDebug toggles the memory dump written after Initialise.
func WithDebug(debug bool) Option {
	return func(n *NTrode) {
		n.debug = debug
	}
}

// WithDebugOutput sets where the debug memory dump is written (default: Stdout).
func WithDebugOutput(w io.Writer) Option {
	return func(n *NTrode) {
		n.debugOut = w
	}
}

// WithLogger sets a custom structured logger for the container.
func WithLogger(logger *slog.Logger) Option {
	return func(n *NTrode) {
		n.logger = logger
	}
}

// WithRegistry sets the factory resolving handler kinds (default: built-in handlers).
func WithRegistry(f pipeline.Factory) Option {
	return func(n *NTrode) {
		n.factory = f
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(n *NTrode) {
		n.hooks = n.hooks.Merge(hooks)
	}
}

// WithHooks registers the container specific pre and post steps.
func WithHooks(h Hooks) Option {
	return func(n *NTrode) {
		n.custom = h
	}
}

// WithContinuation sets the predicate checked before every cycle (default: always true).
// It is checked together with the WithMaxCycles limit; both must hold.
func WithContinuation(fn Continuation) Option {
	return func(n *NTrode) {
		n.continuation = fn
	}
}

// WithMaxCycles stops the loop once the container has cycled max times,
// whatever the continuation predicate says. Zero means no limit.
func WithMaxCycles(max uint64) Option {
	return func(n *NTrode) {
		n.maxCycles = max
	}
}

// WithTransitionTable replaces the default transition table.
// fn receives the container actions so the replacement can keep binding them.
func WithTransitionTable(fn func(statemachine.Actions) statemachine.Table) Option {
	return func(n *NTrode) {
		n.tableFn = fn
	}
}

// New creates a container for the given handler specs.
// It fails with domain.ErrNoHandlers when specs is empty; no handler is built
// before Initialise.
func New(specs []domain.HandlerSpec, opts ...Option) (*NTrode, error) {
	if len(specs) == 0 {
		return nil, domain.ErrNoHandlers
	}

	n := &NTrode{
		debugOut: os.Stdout,
		pipeline: pipeline.New(),
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.name == "" {
		n.name = "ntrode-" + uuid.NewString()[:8]
	}
	if n.logger == nil {
		n.logger = logging.NewNop()
	}
	n.logger = n.logger.With("ntrode", n.name)
	if n.factory == nil {
		n.factory = handlers.NewRegistry()
	}

	stored := domain.CloneSpecs(specs)
	n.mem = memory.New(memory.WithDefaults(func(ns *memory.Namespace) {
		ns.Set(domain.KeyInitHandlers, domain.CloneSpecs(stored))
	}))

	actions := statemachine.Actions{
		Initialise: n.initialise,
		Invoke:     n.InvokeHandlers,
	}
	table := statemachine.DefaultTable(actions)
	if n.tableFn != nil {
		table = n.tableFn(actions)
		if err := table.Validate(); err != nil {
			n.logger.Warn("custom transition table is not total", "err", err)
		}
	}
	n.machine = statemachine.New(table)

	n.pipeline.Observe(n.observeInvoke)

	return n, nil
}

// Name returns the container identifier.
func (n *NTrode) Name() string {
	return n.name
}

// Debug reports whether the debug memory dump is enabled.
func (n *NTrode) Debug() bool {
	return n.debug
}

// Memory returns the namespace owned by the container.
func (n *NTrode) Memory() *memory.Namespace {
	return n.mem
}

// Handlers returns the attached handlers in pipeline order (empty before Initialise).
func (n *NTrode) Handlers() []domain.Handler {
	return n.pipeline.Handlers()
}

// Logger returns the container logger, already tagged with the container name.
func (n *NTrode) Logger() *slog.Logger {
	return n.logger
}

// State returns the current cyclic state.
func (n *NTrode) State() domain.State {
	return n.machine.Current()
}

// Cycles returns the number of completed Cycle calls since construction or the last Reset.
func (n *NTrode) Cycles() uint64 {
	return n.cycles
}

// Running reports whether a Run or Start loop is active.
func (n *NTrode) Running() bool {
	return n.running.Load()
}

func (n *NTrode) String() string {
	return fmt.Sprintf("NTrode(%s, state=%s, handlers=%d)", n.name, n.State(), n.pipeline.Len())
}

// UntilExhausted returns a continuation that stops the loop once the input
// handler has set handlers.KeyExhausted to true in memory.
func UntilExhausted() Continuation {
	return func(ctx context.Context, n *NTrode) bool {
		done, _ := memory.Lookup[bool](n.mem, handlers.KeyExhausted)
		return !done
	}
}
