package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/idea-prioritizer/internal/pipeline"
	"github.com/jonathan/idea-prioritizer/internal/server/ratelimit"
	"github.com/jonathan/idea-prioritizer/internal/types"
)

// Ranker runs the idea-ranking pipeline. *pipeline.Pipeline satisfies it.
type Ranker interface {
	RunWithProgress(ctx context.Context, constraints types.Constraints, onProgress pipeline.ProgressCallback) (*pipeline.Result, error)
}

// Config holds server settings.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	RateLimit       ratelimit.Policy
	// RateWhitelist lists client IPs that are never rate limited.
	RateWhitelist []string
	// PruneInterval is how often idle rate-limit clients are dropped while serving.
	PruneInterval time.Duration
	Logger        *zap.Logger
	// Gatherer backs GET /metrics; defaults to the Prometheus default registry.
	Gatherer prometheus.Gatherer
}

// Server serves the ranking API. Pipeline runs are serialized so the audit
// log has a single writer.
type Server struct {
	httpServer      *http.Server
	ranker          Ranker
	runs            *semaphore.Weighted
	limiter         *ratelimit.Limiter
	logger          *zap.Logger
	shutdownTimeout time.Duration
	pruneInterval   time.Duration
}

// New creates a Server for ranker.
func New(ranker Ranker, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		ranker:          ranker,
		runs:            semaphore.NewWeighted(1),
		limiter:         ratelimit.NewLimiter(cfg.RateLimit, cfg.RateWhitelist...),
		logger:          cfg.Logger,
		shutdownTimeout: cfg.ShutdownTimeout,
		pruneInterval:   cfg.PruneInterval,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /get_top_ideas", s.withRateLimit(s.handleTopIdeas))
	mux.HandleFunc("POST /get_top_ideas/stream", s.withRateLimit(s.handleTopIdeasStream))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute, // a run makes two oracle calls per idea
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully. Idle
// rate-limit clients are pruned in the background while it runs.
func (s *Server) Start(ctx context.Context) error {
	pruneCtx, stopPruning := context.WithCancel(ctx)
	defer stopPruning()
	go s.limiter.RunPruner(pruneCtx, s.pruneInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := s.limiter.Allow(clientID(r))
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		}
		if !info.Allowed {
			retry := int(info.RetryAfter.Seconds() + 0.5)
			w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
			s.logger.Warn("rate limit exceeded", zap.String("client", clientID(r)))
			s.failure(w, &ErrRateLimited{RetryAfter: info.RetryAfter})
			return
		}
		next(w, r)
	}
}

func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

func (s *Server) failure(w http.ResponseWriter, err error) {
	s.errorResponse(w, HTTPStatus(err), err.Error())
}
