// Package pipeline drives an ordered list of handlers through their lifecycle.
//
// Handlers are always called in list order and never concurrently. Every
// failure is wrapped in a *domain.HandlerError and returned immediately;
// handlers that already succeeded are not rolled back.
package pipeline

import (
	"context"
	"time"

	"github.com/aretw0/ntrode/pkg/domain"
)

// Factory builds a handler from its spec.
// *registry.Registry satisfies it.
type Factory interface {
	Build(spec domain.HandlerSpec) (domain.Handler, error)
}

// InvokeObserver is told about every Invoke call once it returns.
type InvokeObserver func(ctx context.Context, index int, kind string, state domain.State, elapsed time.Duration, err error)

// Pipeline is an ordered collection of attached handlers.
type Pipeline struct {
	handlers []domain.Handler
	kinds    []string
	observe  InvokeObserver
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Observe registers fn to be called after each handler invocation.
func (p *Pipeline) Observe(fn InvokeObserver) {
	p.observe = fn
}

// Build constructs one handler per spec, in order, attaching each to owner.
// Any handlers from a previous Build are dropped first.
func (p *Pipeline) Build(ctx context.Context, specs []domain.HandlerSpec, owner domain.Owner, factory Factory) error {
	p.handlers = make([]domain.Handler, 0, len(specs))
	p.kinds = make([]string, 0, len(specs))

	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, err := factory.Build(spec)
		if err != nil {
			return &domain.HandlerError{Index: i, Kind: spec.Kind, Phase: domain.PhaseBuild, Err: err}
		}
		if err := h.Attach(owner); err != nil {
			return &domain.HandlerError{Index: i, Kind: spec.Kind, Phase: domain.PhaseAttach, Err: err}
		}
		p.handlers = append(p.handlers, h)
		p.kinds = append(p.kinds, spec.Kind)
	}
	return nil
}

// InitialiseAll initialises every handler in order.
func (p *Pipeline) InitialiseAll(ctx context.Context) error {
	for i, h := range p.handlers {
		if err := h.Initialise(ctx); err != nil {
			return &domain.HandlerError{Index: i, Kind: p.kinds[i], Phase: domain.PhaseInitialise, Err: err}
		}
	}
	return nil
}

// Invoke calls every handler in order with the given state.
func (p *Pipeline) Invoke(ctx context.Context, state domain.State) error {
	for i, h := range p.handlers {
		start := time.Now()
		err := h.Invoke(ctx, state)
		if p.observe != nil {
			p.observe(ctx, i, p.kinds[i], state, time.Since(start), err)
		}
		if err != nil {
			return &domain.HandlerError{Index: i, Kind: p.kinds[i], Phase: domain.PhaseInvoke, State: state, Err: err}
		}
	}
	return nil
}

// FinaliseAll finalises every handler in order. It is a no-op before Build.
func (p *Pipeline) FinaliseAll(ctx context.Context) error {
	for i, h := range p.handlers {
		if err := h.Finalise(ctx); err != nil {
			return &domain.HandlerError{Index: i, Kind: p.kinds[i], Phase: domain.PhaseFinalise, Err: err}
		}
	}
	return nil
}

// Handlers returns the attached handlers in order.
func (p *Pipeline) Handlers() []domain.Handler {
	out := make([]domain.Handler, len(p.handlers))
	copy(out, p.handlers)
	return out
}

// Len returns the number of attached handlers.
func (p *Pipeline) Len() int {
	return len(p.handlers)
}

// Built reports whether Build has run.
func (p *Pipeline) Built() bool {
	return p.handlers != nil
}
