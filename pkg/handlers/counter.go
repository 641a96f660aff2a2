package handlers

import (
	"context"
	"fmt"

	"github.com/aretw0/ntrode/pkg/domain"
)

// CounterConfig configures the counter input handler.
type CounterConfig struct {
	Key   string `mapstructure:"key"`   // Memory name of the current item (default "item")
	Start int    `mapstructure:"start"` // First item
	Step  int    `mapstructure:"step"`  // Increment per INPUT (default 1)
	Limit int    `mapstructure:"limit"` // Number of items to produce, 0 for unlimited
}

// Counter advances an item index on every INPUT and marks the owner's memory
// exhausted after the OUTPUT of its last item.
type Counter struct {
	Base
	cfg      CounterConfig
	next     int
	produced int
}

// NewCounter builds a Counter.
func NewCounter(cfg CounterConfig) (domain.Handler, error) {
	if cfg.Key == "" {
		cfg.Key = "item"
	}
	if cfg.Step == 0 {
		cfg.Step = 1
	}
	if cfg.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative")
	}
	return &Counter{cfg: cfg}, nil
}

func (c *Counter) Initialise(ctx context.Context) error {
	c.next = c.cfg.Start
	c.produced = 0
	mem := c.Owner().Memory()
	mem.Set(KeyExhausted, false)
	mem.Set("produced", 0)
	return nil
}

func (c *Counter) Invoke(ctx context.Context, state domain.State) error {
	mem := c.Owner().Memory()
	switch state {
	case domain.StateInput:
		mem.Set(c.cfg.Key, c.next)
		c.next += c.cfg.Step
		c.produced++
		mem.Set("produced", c.produced)
	case domain.StateOutput:
		if c.cfg.Limit > 0 && c.produced >= c.cfg.Limit {
			mem.Set(KeyExhausted, true)
		}
	}
	return nil
}
