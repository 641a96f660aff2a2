// Package registry resolves handler kinds to the builders that construct them.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Builder constructs a handler from the configuration mapping of its spec.
type Builder func(config map[string]any) (domain.Handler, error)

// Registry manages the available handler kinds.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

// Register adds a builder to the registry.
// If a builder with the same kind exists, it is overwritten.
func (r *Registry) Register(kind string, fn Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[kind] = fn
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builders[kind]
	return ok
}

// Kinds returns the registered kinds in lexical order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.builders))
	for k := range r.builders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build looks up the spec kind and constructs the handler.
// Returns domain.ErrUnknownKind if the kind is not registered.
func (r *Registry) Build(spec domain.HandlerSpec) (domain.Handler, error) {
	r.mu.RLock()
	fn, ok := r.builders[spec.Kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownKind, spec.Kind)
	}

	h, err := fn(spec.Config)
	if err != nil {
		return nil, fmt.Errorf("%w: build %s: %v", domain.ErrConfiguration, spec.Kind, err)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: builder for %s returned no handler", domain.ErrConfiguration, spec.Kind)
	}
	return h, nil
}

// Validate checks that every spec names a registered kind.
func (r *Registry) Validate(specs []domain.HandlerSpec) error {
	for i, s := range specs {
		if !r.Has(s.Kind) {
			return fmt.Errorf("%w: spec %d: %s", domain.ErrUnknownKind, i, s.Kind)
		}
	}
	return nil
}

// Typed adapts a constructor taking a typed configuration struct into a Builder.
// The configuration mapping is decoded with mapstructure; unknown keys are rejected
// and scalar strings are weakly converted so values read from YAML, JSON or TOML
// files decode the same way.
func Typed[C any](fn func(C) (domain.Handler, error)) Builder {
	return func(config map[string]any) (domain.Handler, error) {
		var cfg C
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &cfg,
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(config); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return fn(cfg)
	}
}
