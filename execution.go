package ntrode

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/google/uuid"
)

// Execution is a container loop running in its own goroutine.
type Execution struct {
	ID string

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start launches the Run loop in a dedicated goroutine and returns immediately.
// The container must not be touched by the caller until the execution is done.
// Stop, or cancelling ctx, ends the loop after the current cycle; the container
// is then finalised once. A panic inside the loop is recovered and reported by
// Wait as domain.ErrExecutionPanic.
func (n *NTrode) Start(ctx context.Context) (*Execution, error) {
	if !n.running.CompareAndSwap(false, true) {
		return nil, domain.ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	exec := &Execution{
		ID:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	logger := n.logger.With("execution", exec.ID)
	logger.Debug("execution started")

	go func() {
		defer close(exec.done)
		defer n.running.Store(false)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				exec.err = fmt.Errorf("%w: %v", domain.ErrExecutionPanic, r)
				logger.Error("execution panicked", "panic", r, "stack", string(debug.Stack()))
			}
		}()

		exec.err = n.loop(ctx)
		if exec.err != nil {
			logger.Error("execution failed", "err", exec.err)
			return
		}
		logger.Debug("execution finished", "cycles", n.Cycles())
	}()

	return exec, nil
}

// Stop asks the loop to end after the current cycle. It does not wait.
func (e *Execution) Stop() {
	e.cancel()
}

// Done is closed once the loop has returned.
func (e *Execution) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the loop has returned and reports its error.
func (e *Execution) Wait() error {
	<-e.done
	return e.err
}
