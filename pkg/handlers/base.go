package handlers

import (
	"context"
	"fmt"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/registry"
)

// Handler kinds registered by Register.
const (
	KindCounter = "counter"
	KindCopy    = "copy"
	KindLog     = "log"
	KindSleep   = "sleep"
)

// KeyExhausted is set to true by an input handler that has no more items.
const KeyExhausted = "exhausted"

// Base implements the optional parts of domain.Handler.
// Embed it and override what the handler needs.
type Base struct {
	owner domain.Owner
}

// Attach keeps a reference to the owner.
func (b *Base) Attach(owner domain.Owner) error {
	if owner == nil {
		return fmt.Errorf("nil owner")
	}
	b.owner = owner
	return nil
}

// Owner returns the container the handler is attached to.
func (b *Base) Owner() domain.Owner {
	return b.owner
}

func (b *Base) Initialise(ctx context.Context) error { return nil }

func (b *Base) Invoke(ctx context.Context, state domain.State) error { return nil }

func (b *Base) Finalise(ctx context.Context) error { return nil }

// Register adds the built-in handler kinds to r.
func Register(r *registry.Registry) {
	r.Register(KindCounter, registry.Typed(NewCounter))
	r.Register(KindCopy, registry.Typed(NewCopy))
	r.Register(KindLog, registry.Typed(NewLog))
	r.Register(KindSleep, registry.Typed(NewSleep))
}

// NewRegistry returns a registry holding the built-in handler kinds.
func NewRegistry() *registry.Registry {
	r := registry.NewRegistry()
	Register(r)
	return r
}

func stateOr(s, def domain.State) (domain.State, error) {
	if s == "" {
		return def, nil
	}
	if !s.Valid() {
		return "", fmt.Errorf("invalid state %q", s)
	}
	return s, nil
}
