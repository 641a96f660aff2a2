package handlers

import (
	"context"
	"fmt"

	"github.com/aretw0/ntrode/pkg/domain"
)

// CopyConfig configures the copy handler.
type CopyConfig struct {
	From     string       `mapstructure:"from"`
	To       string       `mapstructure:"to"`
	State    domain.State `mapstructure:"state"`    // Default PROCESS
	Required bool         `mapstructure:"required"` // Fail when From is absent
}

// Copy copies a memory value from one name to another. When the source is
// absent the target is removed too, so a stale value never outlives its cycle.
type Copy struct {
	Base
	cfg CopyConfig
}

// NewCopy builds a Copy handler.
func NewCopy(cfg CopyConfig) (domain.Handler, error) {
	if cfg.From == "" || cfg.To == "" {
		return nil, fmt.Errorf("from and to are required")
	}
	s, err := stateOr(cfg.State, domain.StateProcess)
	if err != nil {
		return nil, err
	}
	cfg.State = s
	return &Copy{cfg: cfg}, nil
}

func (c *Copy) Invoke(ctx context.Context, state domain.State) error {
	if state != c.cfg.State {
		return nil
	}
	mem := c.Owner().Memory()
	v, ok := mem.Get(c.cfg.From)
	if !ok {
		if c.cfg.Required {
			return fmt.Errorf("%q not in memory", c.cfg.From)
		}
		mem.Delete(c.cfg.To)
		return nil
	}
	mem.Set(c.cfg.To, v)
	return nil
}
