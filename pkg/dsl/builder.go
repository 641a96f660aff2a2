package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/ntrode"
	"github.com/aretw0/ntrode/pkg/domain"
)

// ErrInputDefined is returned when Input is called more than once.
var ErrInputDefined = errors.New("input handler already defined")

// Builder accumulates handler specs in pipeline order.
type Builder struct {
	handlers []*HandlerBuilder
	hasInput bool
	err      error
}

// New creates an empty pipeline builder.
func New() *Builder {
	return &Builder{}
}

// Input places a handler of the given kind at position 0, the input handler position.
func (b *Builder) Input(kind string) *HandlerBuilder {
	hb := &HandlerBuilder{spec: domain.HandlerSpec{Kind: kind}, builder: b}
	if b.hasInput {
		b.fail(ErrInputDefined)
		return hb
	}
	b.hasInput = true
	b.handlers = append([]*HandlerBuilder{hb}, b.handlers...)
	return hb
}

// Then appends a handler of the given kind.
func (b *Builder) Then(kind string) *HandlerBuilder {
	hb := &HandlerBuilder{spec: domain.HandlerSpec{Kind: kind}, builder: b}
	b.handlers = append(b.handlers, hb)
	return hb
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Specs returns the handler specs in pipeline order.
func (b *Builder) Specs() ([]domain.HandlerSpec, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.handlers) == 0 {
		return nil, domain.ErrNoHandlers
	}
	specs := make([]domain.HandlerSpec, len(b.handlers))
	for i, hb := range b.handlers {
		if hb.spec.Kind == "" {
			return nil, fmt.Errorf("%w: handler %d has no kind", domain.ErrConfiguration, i)
		}
		specs[i] = hb.spec
	}
	return domain.CloneSpecs(specs), nil
}

// NTrode builds a container for the accumulated specs.
func (b *Builder) NTrode(opts ...ntrode.Option) (*ntrode.NTrode, error) {
	specs, err := b.Specs()
	if err != nil {
		return nil, err
	}
	return ntrode.New(specs, opts...)
}

// HandlerBuilder configures one handler spec.
type HandlerBuilder struct {
	spec    domain.HandlerSpec
	builder *Builder
}

// Set adds one configuration entry.
func (h *HandlerBuilder) Set(key string, value any) *HandlerBuilder {
	if h.spec.Config == nil {
		h.spec.Config = make(map[string]any)
	}
	h.spec.Config[key] = value
	return h
}

// With merges a configuration mapping.
func (h *HandlerBuilder) With(config map[string]any) *HandlerBuilder {
	for k, v := range config {
		h.Set(k, v)
	}
	return h
}

// Then appends the next handler.
func (h *HandlerBuilder) Then(kind string) *HandlerBuilder {
	return h.builder.Then(kind)
}

// Input defines the input handler.
func (h *HandlerBuilder) Input(kind string) *HandlerBuilder {
	return h.builder.Input(kind)
}

// Specs returns the specs of the whole pipeline.
func (h *HandlerBuilder) Specs() ([]domain.HandlerSpec, error) {
	return h.builder.Specs()
}

// NTrode builds a container for the whole pipeline.
func (h *HandlerBuilder) NTrode(opts ...ntrode.Option) (*ntrode.NTrode, error) {
	return h.builder.NTrode(opts...)
}

// Spec returns the spec configured so far.
func (h *HandlerBuilder) Spec() domain.HandlerSpec {
	return h.spec
}
