package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/ntrode/pkg/domain"
)

// Logging returns hooks writing every event to logger.
// Successful cycles and handler invocations are logged at debug level,
// finalisation at info and failures at error.
func Logging(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCycle: func(ctx context.Context, e *domain.CycleEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "cycle_failed", "ntrode", e.NTrode, "state", e.From, "cycle", e.Cycle, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "cycle", "ntrode", e.NTrode, "from", e.From, "to", e.To, "cycle", e.Cycle, "duration", e.Duration)
		},
		OnHandlerInvoke: func(ctx context.Context, e *domain.HandlerEvent) {
			logger.DebugContext(ctx, "handler_invoke",
				"ntrode", e.NTrode,
				"index", e.Index,
				"kind", e.Kind,
				"state", e.State,
				"duration", e.Duration,
				"is_error", e.Err != nil,
			)
		},
		OnFinalise: func(ctx context.Context, e *domain.FinaliseEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "finalise_failed", "ntrode", e.NTrode, "cycles", e.Cycles, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "finalised", "ntrode", e.NTrode, "cycles", e.Cycles)
		},
	}
}
