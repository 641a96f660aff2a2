package redis

import (
	"context"
	"fmt"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/handlers"
	backend "github.com/redis/go-redis/v9"
)

// SinkConfig configures the Redis output handler.
type SinkConfig struct {
	Key    string       `mapstructure:"key"`     // List to push results to
	From   string       `mapstructure:"from"`    // Memory name to push (default "item")
	State  domain.State `mapstructure:"state"`   // Default OUTPUT
	Format string       `mapstructure:"format"`  // json (default) or raw
	MaxLen int64        `mapstructure:"max_len"` // Keep only the newest MaxLen entries, 0 for unbounded
}

// Sink is an output handler. It appends a memory value to a list.
// Cycles without the value are skipped.
type Sink struct {
	handlers.Base
	client *backend.Client
	key    string
	cfg    SinkConfig
	pushed int
}

// NewSink creates a Sink writing to prefix+cfg.Key.
func NewSink(client *backend.Client, prefix string, cfg SinkConfig) (*Sink, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("key is required")
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
	if cfg.MaxLen < 0 {
		return nil, fmt.Errorf("max_len must not be negative")
	}
	format, err := checkFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	cfg.Format = format
	return &Sink{client: client, key: prefix + cfg.Key, cfg: cfg}, nil
}

// Initialise checks the connection.
func (s *Sink) Initialise(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	s.pushed = 0
	return nil
}

func (s *Sink) Invoke(ctx context.Context, state domain.State) error {
	if state != s.cfg.State {
		return nil
	}
	v, ok := s.Owner().Memory().Get(s.cfg.From)
	if !ok {
		return nil
	}
	data, err := encode(s.cfg.Format, v)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.key, data)
	if s.cfg.MaxLen > 0 {
		pipe.LTrim(ctx, s.key, -s.cfg.MaxLen, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push to redis: %w", err)
	}
	s.pushed++
	return nil
}

// Pushed returns how many items were written since Initialise.
func (s *Sink) Pushed() int {
	return s.pushed
}
