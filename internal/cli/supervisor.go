package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/ntrode"
	"golang.org/x/sync/errgroup"
)

// Supervise starts every container in its own execution and waits for all of
// them. Containers are independent: a failing one is logged and reported in the
// joined error while the others keep running, unless failFast is set, in which
// case the first failure stops the rest.
func Supervise(ctx context.Context, containers []*ntrode.NTrode, failFast bool, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	var (
		mu   sync.Mutex
		errs []error
	)

	for _, n := range containers {
		n := n
		g.Go(func() error {
			exec, err := n.Start(gctx)
			if err != nil {
				return fmt.Errorf("ntrode %q: %w", n.Name(), err)
			}
			logger.Info("ntrode started", "ntrode", n.Name(), "execution", exec.ID)

			if err := exec.Wait(); err != nil {
				err = fmt.Errorf("ntrode %q: %w", n.Name(), err)
				logger.Error("ntrode failed", "ntrode", n.Name(), "state", n.State(), "err", err)
				if failFast {
					return err
				}
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}

			logger.Info("ntrode finished", "ntrode", n.Name(), "cycles", n.Cycles())
			return nil
		})
	}

	err := g.Wait()
	return errors.Join(append([]error{err}, errs...)...)
}
