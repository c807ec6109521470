// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeranaias/rigrun-slots/internal/logging"
	"github.com/jeranaias/rigrun-slots/internal/messenger"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultRateLimit is the sustained envelopes per second per connection.
	DefaultRateLimit = 50
	// DefaultRateBurst is the token bucket size per connection.
	DefaultRateBurst = 100
	// MaxMessageSize bounds a single inbound frame (64KB).
	MaxMessageSize = 64 * 1024
	// ShutdownTimeout bounds graceful shutdown in Run.
	ShutdownTimeout = 5 * time.Second

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var (
	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rigrun_slots_ws_connections",
		Help: "Open WebSocket connections",
	})
	envelopesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rigrun_slots_ws_envelopes_total",
		Help: "Inbound envelopes by kind",
	}, []string{"kind"})
	throttledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rigrun_slots_ws_throttled_total",
		Help: "Envelopes delayed by the per-connection rate limit",
	})
)

// ============================================================================
// SERVER
// ============================================================================

// Config configures a Server.
type Config struct {
	Addr           string
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
	Version        string
}

// Server serves a messenger.Handler over WebSocket.
type Server struct {
	cfg      Config
	handler  messenger.Handler
	logger   *slog.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	mu       sync.Mutex
	server   *http.Server
	conns    sync.WaitGroup
	active   int
	quit     chan struct{}
	quitOnce sync.Once
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server. Zero rate settings fall back to the defaults.
func New(cfg Config, h messenger.Handler, opts ...Option) *Server {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &Server{
		cfg:     cfg,
		handler: h,
		logger:  logging.Discard(),
		mux:     http.NewServeMux(),
		quit:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.originAllowed,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
	)(s.mux)
}

// originAllowed accepts requests without an Origin header (non-browser
// clients), origins listed in the config ("*" allows any), and otherwise
// only an origin naming the same host.
func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	if len(s.cfg.AllowedOrigins) > 0 {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Serve accepts connections on ln until Shutdown. A Server serves once.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	select {
	case <-s.quit:
		s.mu.Unlock()
		ln.Close()
		return nil
	default:
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("server started", "addr", ln.Addr().String(), "version", s.cfg.Version)
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for open WebSocket
// sessions to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	// Hijacked WebSocket connections are not closed by http.Server
	s.quitOnce.Do(func() { close(s.quit) })

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	var err error
	if srv != nil {
		s.logger.Info("server shutting down")
		err = srv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// Run listens on cfg.Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// ============================================================================
// HEALTH
// ============================================================================

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Connections int    `json:"connections"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Version:     s.cfg.Version,
		Connections: active,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
