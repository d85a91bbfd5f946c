// Package server exposes the quote pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/unitech3d/stlquote/internal/config"
	"github.com/unitech3d/stlquote/internal/metrics"
	"github.com/unitech3d/stlquote/internal/quote"
)

// Quoter prices an upload.
type Quoter interface {
	Quote(ctx context.Context, req quote.Request) (*quote.Result, error)
}

// Options wire a Server.
type Options struct {
	Quotes         Quoter
	Metrics        *metrics.Collector // nil disables /metrics and HTTP metrics
	MetricsPath    string
	StaticDir      string
	IndexFiles     []string
	MaxUploadBytes int64
	RateLimit      config.RateLimitConfig
	Logger         *zap.Logger
}

// Server serves the home page, static files and /calculate.
type Server struct {
	quotes         Quoter
	metrics        *metrics.Collector
	metricsPath    string
	staticDir      string
	indexFiles     []string
	maxUploadBytes int64
	rateLimit      config.RateLimitConfig
	logger         *zap.Logger
}

// New creates a server
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = config.DefaultServerConfig().MaxUploadBytes
	}

	return &Server{
		quotes:         opts.Quotes,
		metrics:        opts.Metrics,
		metricsPath:    metricsPath,
		staticDir:      opts.StaticDir,
		indexFiles:     opts.IndexFiles,
		maxUploadBytes: maxUpload,
		rateLimit:      opts.RateLimit,
		logger:         logger.With(zap.String("component", "http")),
	}
}

// Handler builds the routed handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	var calculate http.Handler = http.HandlerFunc(s.handleCalculate)
	if s.rateLimit.Enabled {
		var onLimited func()
		if s.metrics != nil {
			onLimited = s.metrics.RecordRateLimited
		}
		calculate = RateLimiter(s.rateLimit.RPS, s.rateLimit.Burst, onLimited, s.logger)(calculate)
	}

	mux.Handle("POST /calculate", calculate)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("/static/", s.handleStatic)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET "+s.metricsPath, s.metrics.Handler())
	}
	mux.HandleFunc("/", s.handleNotFound)

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		RequestLogger(s.logger),
	}
	if s.metrics != nil {
		middlewares = append(middlewares, Metrics(s.metrics))
	}
	return Chain(mux, middlewares...)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Serving", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
