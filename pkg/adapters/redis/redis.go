// Package redis provides handlers that read a container's input from, and write
// its output to, Redis lists.
package redis

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/registry"
	backend "github.com/redis/go-redis/v9"
)

// Handler kinds registered by Register.
const (
	KindSource = "redis-source"
	KindSink   = "redis-sink"
)

// Encodings supported for list items.
const (
	FormatJSON = "json"
	FormatRaw  = "raw"
)

type options struct {
	prefix string
}

// Option configures the handlers registered by Register.
type Option func(*options)

// WithPrefix sets the prefix prepended to every list key.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// Register adds the Redis handler kinds to r. Every handler built shares client;
// closing it stays the caller's job.
func Register(r *registry.Registry, client *backend.Client, opts ...Option) {
	o := options{prefix: "ntrode:"}
	for _, opt := range opts {
		opt(&o)
	}
	r.Register(KindSource, registry.Typed(func(cfg SourceConfig) (domain.Handler, error) {
		return NewSource(client, o.prefix, cfg)
	}))
	r.Register(KindSink, registry.Typed(func(cfg SinkConfig) (domain.Handler, error) {
		return NewSink(client, o.prefix, cfg)
	}))
}

// NewClient creates a client for the given address.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

func checkFormat(f string) (string, error) {
	switch f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatRaw:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q", f)
}

func encode(format string, v any) (string, error) {
	if format == FormatRaw {
		return fmt.Sprint(v), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal item: %w", err)
	}
	return string(data), nil
}

func decode(format, raw string) (any, error) {
	if format == FormatRaw {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return v, nil
}
