package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/ntrode/pkg/domain"
)

// SleepConfig configures the sleep handler.
type SleepConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	State    domain.State  `mapstructure:"state"` // Default INPUT
}

// Sleep blocks the cycle for a fixed interval in one state.
// The wait ends early when ctx is cancelled; that is not an error.
type Sleep struct {
	Base
	cfg SleepConfig
}

// NewSleep builds a Sleep handler.
func NewSleep(cfg SleepConfig) (domain.Handler, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	s, err := stateOr(cfg.State, domain.StateInput)
	if err != nil {
		return nil, err
	}
	cfg.State = s
	return &Sleep{cfg: cfg}, nil
}

func (s *Sleep) Invoke(ctx context.Context, state domain.State) error {
	if state != s.cfg.State {
		return nil
	}
	t := time.NewTimer(s.cfg.Interval)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	return nil
}
