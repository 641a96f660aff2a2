package process

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/handlers"
	"github.com/aretw0/ntrode/pkg/registry"
)

// Kind is the handler kind registered by Register.
const Kind = "process"

// HandlerConfig configures a process stage.
type HandlerConfig struct {
	Process string        `mapstructure:"process"` // Allow-listed name
	Args    []string      `mapstructure:"args"`    // Memory names passed to the process
	Into    string        `mapstructure:"into"`    // Memory name of the result (default "result")
	State   domain.State  `mapstructure:"state"`   // Default PROCESS
	Timeout time.Duration `mapstructure:"timeout"` // Zero for none
}

// Handler runs one allow-listed process per cycle in its state.
type Handler struct {
	handlers.Base
	runner *Runner
	cfg    HandlerConfig
	runs   int
}

// Register adds the process kind to r. Process names are checked against
// runner when the handler is built.
func Register(r *registry.Registry, runner *Runner) {
	r.Register(Kind, registry.Typed(func(cfg HandlerConfig) (domain.Handler, error) {
		return NewHandler(runner, cfg)
	}))
}

// NewHandler creates a process stage.
func NewHandler(runner *Runner, cfg HandlerConfig) (*Handler, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if cfg.Process == "" {
		return nil, fmt.Errorf("process is required")
	}
	if !runner.Has(cfg.Process) {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, cfg.Process)
	}
	if cfg.Into == "" {
		cfg.Into = "result"
	}
	if cfg.State == "" {
		cfg.State = domain.StateProcess
	}
	if !cfg.State.Valid() {
		return nil, fmt.Errorf("invalid state %q", cfg.State)
	}
	return &Handler{runner: runner, cfg: cfg}, nil
}

func (h *Handler) Invoke(ctx context.Context, state domain.State) error {
	if state != h.cfg.State {
		return nil
	}
	mem := h.Owner().Memory()

	args := make(map[string]any, len(h.cfg.Args))
	for _, name := range h.cfg.Args {
		if v, ok := mem.Get(name); ok {
			args[name] = v
		}
	}

	if h.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Timeout)
		defer cancel()
	}

	out, err := h.runner.Execute(ctx, h.cfg.Process, args)
	if err != nil {
		return err
	}
	h.runs++
	mem.Set(h.cfg.Into, out)
	return nil
}

// Runs returns how many times the process completed.
func (h *Handler) Runs() int {
	return h.runs
}
