package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/handlers"
	"github.com/aretw0/ntrode/pkg/registry"
)

// Handler kinds registered by Register.
const (
	KindSource = "queue-source"
	KindSink   = "queue-sink"
)

// Register adds the queue handler kinds to r, resolving queue names through b.
func Register(r *registry.Registry, b *Broker) {
	r.Register(KindSource, registry.Typed(func(cfg SourceConfig) (domain.Handler, error) {
		return NewSource(b, cfg)
	}))
	r.Register(KindSink, registry.Typed(func(cfg SinkConfig) (domain.Handler, error) {
		return NewSink(b, cfg)
	}))
}

// SourceConfig configures the queue input handler.
type SourceConfig struct {
	Queue string `mapstructure:"queue"`
	Into  string `mapstructure:"into"` // Memory name of the current item (default "item")
}

// Source is an input handler. On INPUT it pops the next item into memory,
// waiting for one; once the queue is closed and drained it marks the memory
// exhausted.
type Source struct {
	handlers.Base
	queue *Queue
	cfg   SourceConfig
}

// NewSource creates a Source reading the named queue of b.
func NewSource(b *Broker, cfg SourceConfig) (*Source, error) {
	if b == nil {
		return nil, fmt.Errorf("broker is required")
	}
	if cfg.Queue == "" {
		return nil, fmt.Errorf("queue is required")
	}
	if cfg.Into == "" {
		cfg.Into = "item"
	}
	return &Source{queue: b.Queue(cfg.Queue), cfg: cfg}, nil
}

// Initialise clears the exhausted flag.
func (s *Source) Initialise(ctx context.Context) error {
	s.Owner().Memory().Set(handlers.KeyExhausted, false)
	return nil
}

func (s *Source) Invoke(ctx context.Context, state domain.State) error {
	if state != domain.StateInput {
		return nil
	}
	mem := s.Owner().Memory()

	v, ok, err := s.queue.Pop(ctx)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		mem.Delete(s.cfg.Into)
		return nil
	case err != nil:
		return err
	case !ok:
		mem.Delete(s.cfg.Into)
		mem.Set(handlers.KeyExhausted, true)
		return nil
	}
	mem.Set(s.cfg.Into, v)
	return nil
}

// SinkConfig configures the queue output handler.
type SinkConfig struct {
	Queue           string       `mapstructure:"queue"`
	From            string       `mapstructure:"from"`              // Memory name to push (default "item")
	State           domain.State `mapstructure:"state"`             // Default OUTPUT
	CloseOnFinalise bool         `mapstructure:"close_on_finalise"` // Close the queue when the container finalises
}

// Sink pushes a memory value to a queue once per cycle.
type Sink struct {
	handlers.Base
	queue *Queue
	cfg   SinkConfig
}

// NewSink creates a Sink writing to the named queue of b.
func NewSink(b *Broker, cfg SinkConfig) (*Sink, error) {
	if b == nil {
		return nil, fmt.Errorf("broker is required")
	}
	if cfg.Queue == "" {
		return nil, fmt.Errorf("queue is required")
	}
	if cfg.From == "" {
		cfg.From = "item"
	}
	if cfg.State == "" {
		cfg.State = domain.StateOutput
	}
	if !cfg.State.Valid() {
		return nil, fmt.Errorf("invalid state %q", cfg.State)
	}
	return &Sink{queue: b.Queue(cfg.Queue), cfg: cfg}, nil
}

func (s *Sink) Invoke(ctx context.Context, state domain.State) error {
	if state != s.cfg.State {
		return nil
	}
	v, ok := s.Owner().Memory().Get(s.cfg.From)
	if !ok {
		return nil
	}
	return s.queue.Push(v)
}

// Finalise closes the queue when configured to, so downstream sources drain and stop.
func (s *Sink) Finalise(ctx context.Context) error {
	if s.cfg.CloseOnFinalise {
		s.queue.Close()
	}
	return nil
}
