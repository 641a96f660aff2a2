package observability

import (
	"context"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by container hooks.
type Metrics struct {
	cycles      *prometheus.CounterVec
	cycleErrors *prometheus.CounterVec
	invocations *prometheus.HistogramVec
	finalised   *prometheus.CounterVec
}

// NewMetrics creates the collectors under the given namespace ("ntrode" when empty).
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ntrode"
	}
	return &Metrics{
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Completed state machine cycles, by container and state left.",
			},
			[]string{"ntrode", "state"},
		),
		cycleErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycle_errors_total",
				Help:      "Cycles that returned an error, by container and state.",
			},
			[]string{"ntrode", "state"},
		),
		invocations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "handler_duration_seconds",
				Help:      "Duration of handler invocations, by container, handler kind and state.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"ntrode", "kind", "state"},
		),
		finalised: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "finalised_total",
				Help:      "Container finalisations, by container and outcome.",
			},
			[]string{"ntrode", "outcome"},
		),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.cycles, m.cycleErrors, m.invocations, m.finalised}
}

// Hooks returns lifecycle hooks recording into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCycle: func(_ context.Context, e *domain.CycleEvent) {
			if e.Err != nil {
				m.cycleErrors.WithLabelValues(e.NTrode, e.From.String()).Inc()
				return
			}
			m.cycles.WithLabelValues(e.NTrode, e.From.String()).Inc()
		},
		OnHandlerInvoke: func(_ context.Context, e *domain.HandlerEvent) {
			m.invocations.WithLabelValues(e.NTrode, e.Kind, e.State.String()).Observe(e.Duration.Seconds())
		},
		OnFinalise: func(_ context.Context, e *domain.FinaliseEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.finalised.WithLabelValues(e.NTrode, outcome).Inc()
		},
	}
}
