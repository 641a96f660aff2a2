package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/ntrode"
	"github.com/aretw0/ntrode/internal/logging"
	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/observability"
	"github.com/go-chi/chi/v5"
)

// StatusSource provides the container statuses served by the API.
// observability.Tracker implements it.
type StatusSource interface {
	List() []observability.Status
	Get(name string) (observability.Status, bool)
}

// Server serves the read-only status API.
type Server struct {
	Statuses StatusSource
	Streams  *StreamManager
	Logger   *slog.Logger
}

// NewServer creates a server reading from statuses.
func NewServer(statuses StatusSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		Statuses: statuses,
		Streams:  NewStreamManager(logger),
		Logger:   logger,
	}
}

// Handler returns the router. Extra mounts (e.g. /metrics) are added by the caller.
func (s *Server) Handler() chi.Router {
	r := chi.NewRouter()
	r.Use(enableCORS)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	r.Route("/ntrodes", func(r chi.Router) {
		r.Get("/", s.ListNTrodes)
		r.Get("/{name}", s.GetNTrode)
		r.Get("/{name}/memory", s.GetMemory)
	})
	return r
}

// Hooks returns lifecycle hooks broadcasting every cycle and finalisation to
// subscribers of /events.
func (s *Server) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCycle: func(_ context.Context, e *domain.CycleEvent) {
			s.broadcast(e.NTrode, event{Type: "cycle", NTrode: e.NTrode, State: e.To, Cycle: e.Cycle, Error: errString(e.Err)})
		},
		OnFinalise: func(_ context.Context, e *domain.FinaliseEvent) {
			s.broadcast(e.NTrode, event{Type: "finalise", NTrode: e.NTrode, Cycle: e.Cycles, Error: errString(e.Err)})
		},
	}
}

type event struct {
	Type   string       `json:"type"`
	NTrode string       `json:"ntrode"`
	State  domain.State `json:"state,omitempty"`
	Cycle  uint64       `json:"cycle"`
	Error  string       `json:"error,omitempty"`
}

func (s *Server) broadcast(name string, e event) {
	payload, err := json.Marshal(e)
	if err != nil {
		s.Logger.Error("event encode failed", "err", err)
		return
	}
	s.Streams.Broadcast(name, string(payload))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListNTrodes handles GET /ntrodes.
func (s *Server) ListNTrodes(w http.ResponseWriter, r *http.Request) {
	list := s.Statuses.List()
	// Memory renderings are served per container only.
	for i := range list {
		list[i].Memory = ""
	}
	s.writeJSON(w, list)
}

// GetNTrode handles GET /ntrodes/{name}.
func (s *Server) GetNTrode(w http.ResponseWriter, r *http.Request) {
	status, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, status)
}

// GetMemory handles GET /ntrodes/{name}/memory, the last memory rendering as text.
func (s *Server) GetMemory(w http.ResponseWriter, r *http.Request) {
	status, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if status.Memory == "" {
		http.Error(w, "No memory recorded yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, status.Memory)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (observability.Status, bool) {
	name := chi.URLParam(r, "name")
	status, ok := s.Statuses.Get(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown ntrode: %s", name), http.StatusNotFound)
		return observability.Status{}, false
	}
	return status, true
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":     "ntrode",
		"version": strings.TrimSpace(ntrode.Version),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	subscribers map[string]map[chan<- string]struct{} // ntrode name ("" for all) -> channels
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		logger:      logger,
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a channel for the events of one container, or of every
// container when name is empty. The returned func unsubscribes.
func (sm *StreamManager) Subscribe(name string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[name]; !ok {
		sm.subscribers[name] = make(map[chan<- string]struct{})
	}
	sm.subscribers[name][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[name]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, name)
			}
		}
	}
}

// Broadcast sends msg to the subscribers of name and to global subscribers.
// Slow subscribers lose messages instead of blocking the container.
func (sm *StreamManager) Broadcast(name string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := []string{name, ""}
	if name == "" {
		keys = keys[:1]
	}
	for _, key := range keys {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping message", "ntrode", name)
			}
		}
	}
}

// SubscribeEvents handles GET /events (SSE). The optional ntrode query
// parameter restricts the stream to one container.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	name := r.URL.Query().Get("ntrode")
	ch, cancel := s.Streams.Subscribe(name)
	defer cancel()
	s.Logger.Debug("SSE: client subscribed", "ntrode", name)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("SSE: client disconnected", "ntrode", name)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
