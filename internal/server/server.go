// Package server exposes the graph engine over a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grafodb/grafo/pkg/engine"
)

// Server holds the HTTP interface and the underlying graph Engine.
type Server struct {
	Engine *engine.Engine

	httpServer  *http.Server
	taskManager *TaskManager
	authToken   string
}

// NewServer initializes the HTTP server around an already-opened Engine.
// seedPath may point to a YAML file whose nodes and edges are applied before
// serving; an empty authToken disables authentication.
func NewServer(eng *engine.Engine, httpAddr string, seedPath string, authToken string) (*Server, error) {
	seed, err := LoadSeedConfig(seedPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Engine:      eng,
		taskManager: NewTaskManager(),
		authToken:   authToken,
	}

	if err := s.applySeed(seed); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	s.registerHTTPHandlers(mux)

	// Chain middlewares: Recovery -> Logging -> Auth -> Mux.
	// Recovery must be outer-most to catch everything.
	var handler http.Handler = mux
	handler = s.authMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)

	// Health and metrics stay outside the auth chain so probes and
	// scrapers work without credentials.
	rootMux := http.NewServeMux()
	rootMux.HandleFunc("GET /healthz", s.handleHealthz)
	rootMux.Handle("GET /metrics", promhttp.Handler())
	rootMux.Handle("/", handler)

	s.httpServer = &http.Server{
		Addr:    httpAddr,
		Handler: rootMux,
	}
	return s, nil
}

// applySeed loads the configured nodes and edges into the engine. Seeding is
// idempotent: entries already present are skipped by the engine.
func (s *Server) applySeed(cfg *SeedConfig) error {
	if len(cfg.Seed.Nodes) == 0 && len(cfg.Seed.Edges) == 0 {
		return nil
	}
	for _, id := range cfg.Seed.Nodes {
		if _, err := s.Engine.NodeAdd(id); err != nil {
			return fmt.Errorf("failed to seed node %d: %w", id, err)
		}
	}
	for _, edge := range cfg.Seed.Edges {
		if _, err := s.Engine.Link(edge.Source, edge.Target); err != nil {
			return fmt.Errorf("failed to seed edge %d -> %d: %w", edge.Source, edge.Target, err)
		}
	}
	slog.Info("seed applied",
		"nodes", len(cfg.Seed.Nodes), "edges", len(cfg.Seed.Edges))
	return nil
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server startup failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the HTTP server. It does NOT
// close the Engine; the caller owns that lifecycle.
func (s *Server) Shutdown() {
	slog.Info("starting graceful shutdown of HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
