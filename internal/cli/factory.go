package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/ntrode"
	"github.com/aretw0/ntrode/internal/config"
	"github.com/aretw0/ntrode/pkg/adapters/process"
	"github.com/aretw0/ntrode/pkg/adapters/queue"
	"github.com/aretw0/ntrode/pkg/adapters/redis"
	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/handlers"
	"github.com/aretw0/ntrode/pkg/registry"
	backend "github.com/redis/go-redis/v9"
)

// defaultRedisAddr backs the Redis kinds when listing them without a configuration.
const defaultRedisAddr = "localhost:6379"

// newRegistry returns the built-in kinds, the in-process queue kinds sharing
// one broker, the process kind bound to the allow-listed commands of cfg
// (run from workDir), and the Redis kinds when an address is configured.
// The Redis client is lazy: nothing connects until a handler initialises.
// The returned client is nil when Redis is not configured.
func newRegistry(cfg *config.File, workDir string) (*registry.Registry, *backend.Client) {
	r := handlers.NewRegistry()
	queue.Register(r, queue.NewBroker())
	process.Register(r, process.NewRunner(
		process.WithProcesses(process.Index(cfg.Processes)),
		process.WithBaseDir(workDir),
	))

	rc := cfg.Redis
	if rc.Addr == "" {
		return r, nil
	}
	client := redis.NewClient(rc.Addr, rc.Password, rc.DB)
	var opts []redis.Option
	if rc.Prefix != "" {
		opts = append(opts, redis.WithPrefix(rc.Prefix))
	}
	redis.Register(r, client, opts...)
	return r, client
}

// checkHandlers builds every handler of the file once, without attaching it,
// so unknown kinds and bad handler configuration are reported up front.
func checkHandlers(cfg *config.File, r *registry.Registry) error {
	for _, n := range cfg.NTrodes {
		if err := r.Validate(n.Handlers); err != nil {
			return fmt.Errorf("ntrode %q: %w", n.Name, err)
		}
		for i, spec := range n.Handlers {
			if _, err := r.Build(spec); err != nil {
				return fmt.Errorf("ntrode %q: handler %d: %w", n.Name, i, err)
			}
		}
	}
	return nil
}

// createContainers builds one container per configured ntrode.
func createContainers(cfg *config.File, r *registry.Registry, logger *slog.Logger, hooks domain.LifecycleHooks) ([]*ntrode.NTrode, error) {
	out := make([]*ntrode.NTrode, 0, len(cfg.NTrodes))
	for _, c := range cfg.NTrodes {
		opts := []ntrode.Option{
			ntrode.WithName(c.Name),
			ntrode.WithDebug(c.Debug),
			ntrode.WithLogger(logger),
			ntrode.WithRegistry(r),
			ntrode.WithLifecycleHooks(hooks),
		}
		if cont := continuation(c); cont != nil {
			opts = append(opts, ntrode.WithContinuation(cont))
		}

		n, err := ntrode.New(c.Handlers, opts...)
		if err != nil {
			return nil, fmt.Errorf("ntrode %q: %w", c.Name, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// continuation combines the cycle limit and the exhaustion flag of c.
// It returns nil when the container should run until stopped.
func continuation(c config.NTrode) ntrode.Continuation {
	var until ntrode.Continuation
	if c.UntilExhausted {
		until = ntrode.UntilExhausted()
	}
	max := c.MaxCycles
	switch {
	case until != nil && max > 0:
		return func(ctx context.Context, n *ntrode.NTrode) bool {
			return n.Cycles() < max && until(ctx, n)
		}
	case until != nil:
		return until
	case max > 0:
		return func(_ context.Context, n *ntrode.NTrode) bool {
			return n.Cycles() < max
		}
	}
	return nil
}
