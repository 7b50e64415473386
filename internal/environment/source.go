// Package environment loads waypoint tuples from the places a host keeps
// them (JSON files, GeoJSON files, a Neo4j database) and exports routes for
// visual inspection.
package environment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fleet-planner/internal/config"
	"fleet-planner/internal/graph"
	"fleet-planner/internal/logging"
)

var (
	// ErrNoSource indicates a graph config with neither a file nor a URI.
	ErrNoSource = errors.New("environment: no waypoint source configured")

	// ErrBadFeature indicates a GeoJSON feature that is not a usable waypoint.
	ErrBadFeature = errors.New("environment: invalid waypoint feature")

	// ErrUnknownWaypoint indicates a route edge whose endpoint is not in the graph.
	ErrUnknownWaypoint = errors.New("environment: unknown waypoint")
)

// Source yields the waypoint tuples a graph is built from.
type Source interface {
	Waypoints(ctx context.Context) ([]graph.Waypoint, error)
}

// FileSource reads the JSON format written by graph.Save.
type FileSource struct {
	Path string
}

// Waypoints implements Source.
func (f FileSource) Waypoints(context.Context) ([]graph.Waypoint, error) {
	return graph.LoadWaypoints(f.Path)
}

// Load reads src and builds the graph.
func Load(ctx context.Context, src Source, log logging.Logger) (*graph.Graph, error) {
	waypoints, err := src.Waypoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("read waypoints: %w", err)
	}
	return graph.Build(waypoints, log)
}

// Open picks a source for cfg: Neo4j when a URI is set, GeoJSON for
// .geojson files and JSON otherwise. The returned close function releases
// database connections and is never nil.
func Open(ctx context.Context, cfg config.GraphConfig, log logging.Logger) (Source, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch {
	case cfg.URI != "":
		src, err := NewNeo4jSource(ctx, Neo4jOptions{
			URI:      cfg.URI,
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil
	case cfg.File == "":
		return nil, noop, ErrNoSource
	case strings.EqualFold(filepath.Ext(cfg.File), ".geojson"):
		return GeoJSONSource{Path: cfg.File, Log: log}, noop, nil
	default:
		return FileSource{Path: cfg.File}, noop, nil
	}
}
