package observability

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/ntrode/pkg/domain"
)

// Status is the last observed view of one container.
type Status struct {
	Name      string       `json:"name"`
	State     domain.State `json:"state"`
	Cycles    uint64       `json:"cycles"`
	Finalised bool         `json:"finalised"`
	Error     string       `json:"error,omitempty"`
	Memory    string       `json:"memory,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Tracker records container statuses from lifecycle events.
// It is safe for concurrent use by several containers.
type Tracker struct {
	mu       sync.RWMutex
	statuses map[string]*Status
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{statuses: make(map[string]*Status)}
}

// Track registers a container before it emits any event, so it is listed as OFF.
func (t *Tracker) Track(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.statuses[name]; !ok {
		t.statuses[name] = &Status{Name: name, State: domain.StateOff, UpdatedAt: time.Now()}
	}
}

// Hooks returns lifecycle hooks updating the tracker.
func (t *Tracker) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCycle: func(_ context.Context, e *domain.CycleEvent) {
			t.update(e.NTrode, e.Timestamp, func(s *Status) {
				s.State = e.To
				s.Cycles = e.Cycle
				s.Finalised = false
				if e.Err != nil {
					s.Error = e.Err.Error()
				} else {
					s.Error = ""
				}
			})
		},
		OnFinalise: func(_ context.Context, e *domain.FinaliseEvent) {
			t.update(e.NTrode, e.Timestamp, func(s *Status) {
				s.Cycles = e.Cycles
				s.Finalised = true
				s.Memory = e.Memory
				if e.Err != nil {
					s.Error = e.Err.Error()
				}
			})
		},
	}
}

func (t *Tracker) update(name string, at time.Time, fn func(*Status)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.statuses[name]
	if !ok {
		s = &Status{Name: name, State: domain.StateOff}
		t.statuses[name] = s
	}
	fn(s)
	s.UpdatedAt = at
}

// Get returns a copy of the status of the named container.
func (t *Tracker) Get(name string) (Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.statuses[name]
	if !ok {
		return Status{}, false
	}
	return *s, true
}

// List returns copies of every status, sorted by name.
func (t *Tracker) List() []Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Status, 0, len(t.statuses))
	for _, s := range t.statuses {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
