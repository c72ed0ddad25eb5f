// Package http exposes the worker's operational endpoints: liveness,
// readiness and scheduled job status. Progress data is not served over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/infrastructure/scheduler"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/interface/http/handlers"
)

// Config is filled from the [http] section of the worker config.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// JobLister reports scheduled jobs.
type JobLister interface {
	ListJobs() []scheduler.JobInfo
}

// JobHistory is optional on a JobLister; *scheduler.Scheduler has it.
type JobHistory interface {
	GetHistory(limit int) []scheduler.JobResult
	GetMetrics() *scheduler.SchedulerMetrics
}

// Dependencies contains everything the handlers need.
type Dependencies struct {
	Health *handlers.CompositeHealthChecker

	// Jobs is optional; /jobs returns an empty list without it.
	Jobs JobLister

	Logger *slog.Logger
}

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger

	mu      sync.RWMutex
	running bool
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Health == nil {
		deps.Health = handlers.NewCompositeHealthChecker("")
	}

	s := &Server{
		config: config,
		deps:   deps,
		logger: deps.Logger.With("component", "http"),
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         config.Address(),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
	r.Get("/jobs", s.handleJobs)
	r.Get("/jobs/history", s.handleJobHistory)

	return r
}

// logRequests logs every request at debug level; probes are frequent.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())
	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
		s.logger.Warn("not ready", "message", status.Message)
	}
	writeJSON(w, code, status)
}

func (s *Server) handleJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := []scheduler.JobInfo{}
	if s.deps.Jobs != nil {
		jobs = append(jobs, s.deps.Jobs.ListJobs()...)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

type jobRun struct {
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Manual     bool      `json:"manual,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// handleJobHistory serves the most recent runs, ?limit=N (default 20), and
// the scheduler's counters.
func (s *Server) handleJobHistory(w http.ResponseWriter, r *http.Request) {
	h, ok := s.deps.Jobs.(JobHistory)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job history unavailable"})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	results := h.GetHistory(limit)
	runs := make([]jobRun, 0, len(results))
	for i := len(results) - 1; i >= 0; i-- {
		res := results[i]
		run := jobRun{
			Job:        res.JobName,
			StartedAt:  res.StartedAt,
			DurationMS: res.Duration.Milliseconds(),
			Success:    res.Success,
			Manual:     res.Manual,
		}
		if res.Error != nil {
			run.Error = res.Error.Error()
		}
		runs = append(runs, run)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":    runs,
		"metrics": h.GetMetrics().Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("http server starting", "address", s.config.Address())

	err := s.httpServer.ListenAndServe()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine. The channel receives the
// result of Start.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()
	return errCh
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
