package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/ntrode/pkg/memory"
)

// Handler is a pluggable stage attached to exactly one container.
// The container drives it through Attach, Initialise, Invoke (once per cyclic
// state) and Finalise, always sequentially.
type Handler interface {
	// Attach binds the handler to its owning container.
	Attach(owner Owner) error

	// Initialise performs handler specific setup. It may read and write the owner's memory.
	Initialise(ctx context.Context) error

	// Invoke does the work for the given state. Handlers branch on the state themselves.
	// The handler at InputHandlerIndex is the sole producer of the dataset for a cycle.
	Invoke(ctx context.Context, state State) error

	// Finalise performs handler specific teardown.
	Finalise(ctx context.Context) error
}

// Owner is the view of the container a handler receives on Attach.
type Owner interface {
	Name() string
	Memory() *memory.Namespace
	Handlers() []Handler
	Logger() *slog.Logger
}

// HandlerSpec is the declarative description a handler is built from.
// Kind is resolved through a registry; Config is decoded into the kind's typed configuration.
type HandlerSpec struct {
	Kind   string         `json:"kind" yaml:"kind" toml:"kind" mapstructure:"kind"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty" toml:"config,omitempty" mapstructure:"config"`
}

func (s HandlerSpec) String() string {
	if len(s.Config) == 0 {
		return s.Kind
	}
	keys := make([]string, 0, len(s.Config))
	for k := range s.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, len(keys))
	for i, k := range keys {
		args[i] = fmt.Sprintf("%s=%v", k, s.Config[k])
	}
	return s.Kind + "(" + strings.Join(args, ", ") + ")"
}

// CloneSpecs returns a copy of specs whose Config maps are not shared with the input.
func CloneSpecs(specs []HandlerSpec) []HandlerSpec {
	out := make([]HandlerSpec, len(specs))
	for i, s := range specs {
		out[i] = HandlerSpec{Kind: s.Kind}
		if s.Config != nil {
			out[i].Config = make(map[string]any, len(s.Config))
			for k, v := range s.Config {
				out[i].Config[k] = v
			}
		}
	}
	return out
}
