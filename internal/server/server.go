// Package server exposes the planners over HTTP JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleet-planner/internal/aco"
	"fleet-planner/internal/astar"
	"fleet-planner/internal/config"
	"fleet-planner/internal/graph"
	"fleet-planner/internal/logging"
	"fleet-planner/internal/sim"
	"fleet-planner/internal/spatial"
)

// Server holds the current waypoint graph and serves queries against it.
type Server struct {
	cfg config.Config
	log logging.Logger

	mu    sync.RWMutex
	g     *graph.Graph
	index *spatial.Index

	http *http.Server
}

// New creates a server without a graph.
func New(cfg config.Config, log logging.Logger) *Server {
	if log == nil {
		log = logging.NoOp{}
	}
	s := &Server{cfg: cfg, log: log}
	s.http = &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTP.Host, strconv.Itoa(cfg.HTTP.Port)),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	return s
}

// SetGraph replaces the graph served by every endpoint.
func (s *Server) SetGraph(g *graph.Graph) {
	idx := spatial.FromGraph(g)
	s.mu.Lock()
	s.g = g
	s.index = idx
	s.mu.Unlock()
}

func (s *Server) current() (*graph.Graph, *spatial.Index) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g, s.index
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/graph", corsMiddleware(s.buildGraphHandler))
	mux.HandleFunc("/graphLines", corsMiddleware(s.graphLinesHandler))
	mux.HandleFunc("/route", corsMiddleware(s.routeHandler))
	mux.HandleFunc("/tour", corsMiddleware(s.tourHandler))
	mux.HandleFunc("/simulate", corsMiddleware(s.simulateHandler))
	mux.HandleFunc("/health", corsMiddleware(s.healthHandler))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start listens on the configured address and blocks until shutdown.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) searcher() *astar.Searcher {
	return astar.New(astar.WithLogger(logging.Component(s.log, "astar")))
}

// colony builds a fresh engine per request; engines own their random source.
// Fields present in override replace the configured parameters.
func (s *Server) colony(override json.RawMessage) (*aco.Engine, error) {
	c := s.cfg.ACO
	cfg := aco.Config{
		Alpha:             c.Alpha,
		Beta:              c.Beta,
		EvaporationFactor: c.EvaporationFactor,
		Q:                 c.Q,
		DefaultPheromone:  c.DefaultPheromone,
		Iterations:        c.Iterations,
		Ants:              c.Ants,
		MaxPathLength:     c.MaxPathLength,
	}
	if len(override) > 0 {
		if err := json.Unmarshal(override, &cfg); err != nil {
			return nil, fmt.Errorf("decode colony override: %w", err)
		}
	}

	opts := []aco.Option{aco.WithLogger(logging.Component(s.log, "aco"))}
	if c.Seed != 0 {
		opts = append(opts, aco.WithSeed(c.Seed))
	}
	return aco.New(cfg, opts...)
}

func (s *Server) simConfig() sim.Config {
	cfg := sim.DefaultConfig()
	if s.cfg.Sim.MaxSpeed > 0 {
		cfg.MaxSpeed = s.cfg.Sim.MaxSpeed
	}
	if s.cfg.Sim.DeliveryWaitTicks >= 0 {
		cfg.DeliveryWaitTicks = s.cfg.Sim.DeliveryWaitTicks
	}
	return cfg
}
