package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/reactor/pkg/reactive"
)

// Options configures the inspector server.
type Options struct {
	// Address is the listen address, host:port.
	Address string

	// Hub streams events on /ws. Nil disables the endpoint.
	Hub *Hub

	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server is the inspector HTTP server.
type Server struct {
	opts   Options
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot reactive.Snapshot
	updated  time.Time

	httpServer *http.Server
}

// NewServer creates an inspector server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{opts: opts, logger: logger}
}

// SetSnapshot publishes the latest graph snapshot. It is safe to call from
// the runtime's goroutine while requests are served.
func (s *Server) SetSnapshot(snap reactive.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.updated = time.Now()
	s.mu.Unlock()
}

// Snapshot returns the last published snapshot.
func (s *Server) Snapshot() reactive.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Handler returns the inspector's routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/graph", s.handleGraph)
	r.Get("/stats", s.handleStats)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if s.opts.Hub != nil {
		r.Get("/ws", s.opts.Hub.HandleWebSocket)
	}
	return r
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snap := s.snapshot
	updated := s.updated
	s.mu.RUnlock()

	if updated.IsZero() {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Last-Modified", updated.UTC().Format(http.TimeFormat))
	writeJSON(w, snap)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	stats := s.snapshot.Stats
	s.mu.RUnlock()

	body := struct {
		reactive.Stats
		Clients int    `json:"clients"`
		Dropped uint64 `json:"dropped_events"`
	}{Stats: stats}
	if s.opts.Hub != nil {
		body.Clients = s.opts.Hub.ClientCount()
		body.Dropped = s.opts.Hub.Dropped()
	}
	writeJSON(w, body)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Start serves until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("devtools: listening", "address", s.opts.Address)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop shuts the HTTP server down, waiting up to five seconds for requests.
func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.httpServer.Shutdown(ctx)
}

// Drive calls step on every tick and publishes a snapshot of rt after each
// call, until ctx is done. It runs on the caller's goroutine, which must be
// the goroutine that owns rt.
func (s *Server) Drive(ctx context.Context, rt *reactive.Runtime, tick time.Duration, step func(i int) error) error {
	s.SetSnapshot(rt.Snapshot())

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for i := 0; ; i++ {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := step(i); err != nil {
				s.logger.Warn("devtools: step failed", "step", i, "error", err)
			}
			s.SetSnapshot(rt.Snapshot())
		}
	}
}
