package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/ntrode/pkg/domain"
)

// LogConfig configures the log handler.
type LogConfig struct {
	Message string         `mapstructure:"message"` // Default "memory"
	Level   string         `mapstructure:"level"`   // debug, info, warn, error (default info)
	Keys    []string       `mapstructure:"keys"`    // Memory names to log, all public ones when empty
	States  []domain.State `mapstructure:"states"`  // Default OUTPUT
}

// Log writes selected memory values to the owner's logger.
type Log struct {
	Base
	cfg   LogConfig
	level slog.Level
}

// NewLog builds a Log handler.
func NewLog(cfg LogConfig) (domain.Handler, error) {
	if cfg.Message == "" {
		cfg.Message = "memory"
	}
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
			return nil, fmt.Errorf("invalid level %q: %w", cfg.Level, err)
		}
	}
	if len(cfg.States) == 0 {
		cfg.States = []domain.State{domain.StateOutput}
	}
	for _, s := range cfg.States {
		if !s.Valid() {
			return nil, fmt.Errorf("invalid state %q", s)
		}
	}
	return &Log{cfg: cfg, level: level}, nil
}

func (l *Log) Invoke(ctx context.Context, state domain.State) error {
	if !l.wants(state) {
		return nil
	}
	mem := l.Owner().Memory()
	keys := l.cfg.Keys
	if len(keys) == 0 {
		keys = mem.Public()
	}

	attrs := make([]any, 0, 2*len(keys)+2)
	attrs = append(attrs, "state", state)
	for _, k := range keys {
		if v, ok := mem.Get(k); ok {
			attrs = append(attrs, k, v)
		}
	}
	l.Owner().Logger().Log(ctx, l.level, l.cfg.Message, attrs...)
	return nil
}

func (l *Log) wants(state domain.State) bool {
	for _, s := range l.cfg.States {
		if s == state {
			return true
		}
	}
	return false
}
