package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fleet-planner/internal/config"
	"fleet-planner/internal/environment"
	"fleet-planner/internal/logging"
	"fleet-planner/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	srv := server.New(cfg, logger)

	// Try to load an existing waypoint graph on startup
	src, closeSource, err := environment.Open(ctx, cfg.Graph, logging.Component(logger, "environment"))
	switch {
	case errors.Is(err, environment.ErrNoSource):
		logger.Info("no waypoint source configured, call POST /graph to create one")
	case err != nil:
		logger.Error("failed to open waypoint source", "error", err)
		os.Exit(1)
	default:
		g, err := environment.Load(ctx, src, logging.Component(logger, "graph"))
		if err != nil {
			logger.Warn("no graph loaded, call POST /graph to create one", "error", err)
		} else {
			srv.SetGraph(g)
			logger.Info("loaded waypoint graph", "nodes", g.NumNodes(), "edges", g.NumEdges())
		}
	}
	defer func() {
		if err := closeSource(context.Background()); err != nil {
			logger.Warn("closing waypoint source failed", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
