// Package server exposes the VCA HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"vca-advisor/internal/common/logger"
	"vca-advisor/internal/common/observability"
	buildcontext "vca-advisor/internal/vca/build-context"
	"vca-advisor/internal/vca/intelligence"
	"vca-advisor/internal/vca/sidebar"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ContextBuilder assembles the repair order aggregate.
type ContextBuilder interface {
	Build(ctx context.Context, repairOrderID string) (*buildcontext.Aggregate, error)
}

// Synthesizer produces the advisory document.
type Synthesizer interface {
	Synthesize(ctx context.Context, agg *buildcontext.Aggregate) (*intelligence.AdvisoryDocument, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	config      Config
	builder     ContextBuilder
	synthesizer Synthesizer
	renderer    *sidebar.Renderer
	obs         *observability.Observability
	logger      logger.Logger
	checks      map[string]ReadinessCheck
}

func New(cfg Config, builder ContextBuilder, synthesizer Synthesizer, renderer *sidebar.Renderer, obs *observability.Observability, log logger.Logger) *Server {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Server{
		config:      cfg,
		builder:     builder,
		synthesizer: synthesizer,
		renderer:    renderer,
		obs:         obs,
		logger:      logger.ForComponent(log, "http"),
		checks:      map[string]ReadinessCheck{},
	}
}

// AddReadinessCheck registers a dependency probed by /ready. Not safe to
// call once the server is running.
func (s *Server) AddReadinessCheck(name string, check ReadinessCheck) {
	s.checks[name] = check
}

// Handler returns the routed handler wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/vca", s.handleVCA)
	mux.HandleFunc("GET /sidebar", s.handleSidebar)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.withRequestID(s.withAccessLog(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.config.Port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", map[string]interface{}{
			"address": ln.Addr().String(),
		})
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutdown signal received, draining connections", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("HTTP server stopped gracefully", nil)
	return nil
}
