package testutils

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/ntrode/internal/logging"
	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/memory"
	"github.com/aretw0/ntrode/pkg/registry"
)

// KindRecorder is the kind under which NewRegistry registers Recorder.
const KindRecorder = "recorder"

// ErrInjected is returned by a Recorder configured to fail.
var ErrInjected = errors.New("injected failure")

// Call is one handler lifecycle call seen by a Recorder.
type Call struct {
	ID    string
	Phase domain.Phase
	State domain.State
}

// Log collects calls from every Recorder sharing it.
type Log struct {
	Calls []Call
}

// Phase returns the calls made in the given phase, in order.
func (l *Log) Phase(p domain.Phase) []Call {
	var out []Call
	for _, c := range l.Calls {
		if c.Phase == p {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many calls the recorder id received in phase p.
func (l *Log) Count(id string, p domain.Phase) int {
	n := 0
	for _, c := range l.Calls {
		if c.ID == id && c.Phase == p {
			n++
		}
	}
	return n
}

// RecorderConfig configures a Recorder built through the registry.
type RecorderConfig struct {
	ID        string       `mapstructure:"id"`
	FailOn    domain.Phase `mapstructure:"fail_on"`
	FailState domain.State `mapstructure:"fail_state"`
}

// Recorder is a no-op handler that appends every call to a shared Log.
type Recorder struct {
	Config RecorderConfig
	Owner  domain.Owner
	log    *Log
}

func (r *Recorder) record(p domain.Phase, s domain.State) error {
	r.log.Calls = append(r.log.Calls, Call{ID: r.Config.ID, Phase: p, State: s})
	if r.Config.FailOn == p && (r.Config.FailState == "" || r.Config.FailState == s) {
		return ErrInjected
	}
	return nil
}

func (r *Recorder) Attach(owner domain.Owner) error {
	r.Owner = owner
	return r.record(domain.PhaseAttach, "")
}

func (r *Recorder) Initialise(ctx context.Context) error {
	return r.record(domain.PhaseInitialise, "")
}

func (r *Recorder) Invoke(ctx context.Context, state domain.State) error {
	return r.record(domain.PhaseInvoke, state)
}

func (r *Recorder) Finalise(ctx context.Context) error {
	return r.record(domain.PhaseFinalise, "")
}

// NewRegistry returns a registry where "recorder" builds Recorders writing to log.
func NewRegistry(log *Log) *registry.Registry {
	r := registry.NewRegistry()
	r.Register(KindRecorder, registry.Typed(func(cfg RecorderConfig) (domain.Handler, error) {
		return &Recorder{Config: cfg, log: log}, nil
	}))
	return r
}

// RecorderSpecs returns one recorder spec per id.
func RecorderSpecs(ids ...string) []domain.HandlerSpec {
	specs := make([]domain.HandlerSpec, len(ids))
	for i, id := range ids {
		specs[i] = domain.HandlerSpec{Kind: KindRecorder, Config: map[string]any{"id": id}}
	}
	return specs
}

// Owner is a minimal domain.Owner for testing handlers outside a container.
type Owner struct {
	ID   string
	Mem  *memory.Namespace
	List []domain.Handler
	Log  *slog.Logger
}

// NewOwner creates an Owner with an empty namespace and a no-op logger.
func NewOwner(t *testing.T, name string) *Owner {
	t.Helper()
	return &Owner{ID: name, Mem: memory.New(), Log: logging.NewNop()}
}

func (o *Owner) Name() string               { return o.ID }
func (o *Owner) Memory() *memory.Namespace  { return o.Mem }
func (o *Owner) Handlers() []domain.Handler { return o.List }
func (o *Owner) Logger() *slog.Logger       { return o.Log }
