package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/handlers"
	backend "github.com/redis/go-redis/v9"
)

// SourceConfig configures the Redis input handler.
type SourceConfig struct {
	Key         string        `mapstructure:"key"`           // List to pop items from
	Into        string        `mapstructure:"into"`          // Memory name of the current item (default "item")
	Format      string        `mapstructure:"format"`        // json (default) or raw
	Timeout     time.Duration `mapstructure:"timeout"`       // BLPOP timeout per attempt (default 1s)
	StopOnEmpty bool          `mapstructure:"stop_on_empty"` // Mark memory exhausted instead of waiting again
}

// Source is an input handler. On INPUT it pops the next item of a list into
// memory, blocking the cycle until one arrives.
type Source struct {
	handlers.Base
	client *backend.Client
	key    string
	cfg    SourceConfig
	popped int
}

// NewSource creates a Source reading prefix+cfg.Key.
func NewSource(client *backend.Client, prefix string, cfg SourceConfig) (*Source, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	if cfg.Into == "" {
		cfg.Into = "item"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	format, err := checkFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	cfg.Format = format
	return &Source{client: client, key: prefix + cfg.Key, cfg: cfg}, nil
}

// Initialise checks the connection and clears the exhausted flag.
func (s *Source) Initialise(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	s.popped = 0
	s.Owner().Memory().Set(handlers.KeyExhausted, false)
	return nil
}

func (s *Source) Invoke(ctx context.Context, state domain.State) error {
	if state != domain.StateInput {
		return nil
	}
	mem := s.Owner().Memory()

	for {
		res, err := s.client.BLPop(ctx, s.cfg.Timeout, s.key).Result()
		switch {
		case err == nil:
			// res is [key, value]
			v, err := decode(s.cfg.Format, res[1])
			if err != nil {
				return err
			}
			s.popped++
			mem.Set(s.cfg.Into, v)
			mem.Set("popped", s.popped)
			return nil
		case errors.Is(err, backend.Nil):
			if s.cfg.StopOnEmpty {
				mem.Delete(s.cfg.Into)
				mem.Set(handlers.KeyExhausted, true)
				return nil
			}
		case ctx.Err() != nil:
			// Stopped while waiting: leave the cycle without an item.
			mem.Delete(s.cfg.Into)
			return nil
		default:
			return fmt.Errorf("failed to pop from redis: %w", err)
		}
		if ctx.Err() != nil {
			mem.Delete(s.cfg.Into)
			return nil
		}
	}
}
