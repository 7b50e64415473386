package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"fleet-planner/internal/logging"
)

// Waypoint is the tuple a hosting environment supplies for graph
// construction: an identifier, a position and the IDs it connects to.
type Waypoint struct {
	ID          NodeID   `json:"id"`
	Position    Vec3     `json:"position"`
	Connections []NodeID `json:"connections"`
}

// Build constructs a graph from host waypoints. Every connection becomes a
// directed edge costed by distance. Connections to unknown waypoints and
// self-connections are logged and skipped; duplicate or empty waypoint IDs
// fail the build.
func Build(waypoints []Waypoint, log logging.Logger) (*Graph, error) {
	if log == nil {
		log = logging.NoOp{}
	}

	g := New()
	for _, wp := range waypoints {
		if err := g.AddNode(wp.ID, wp.Position); err != nil {
			return nil, err
		}
	}

	skipped := 0
	for _, wp := range waypoints {
		for _, to := range wp.Connections {
			if to == wp.ID {
				log.Warn("skipping self connection", "waypoint", wp.ID)
				skipped++
				continue
			}
			if !g.Has(to) {
				log.Warn("skipping connection to unknown waypoint", "from", wp.ID, "to", to)
				skipped++
				continue
			}
			if _, err := g.AddEdge(wp.ID, to); err != nil {
				return nil, err
			}
		}
	}

	log.Info("waypoint graph built", "nodes", g.NumNodes(), "edges", g.NumEdges(), "skipped", skipped)
	return g, nil
}

// Waypoints converts the graph back into host tuples, preserving node and
// edge order.
func (g *Graph) Waypoints() []Waypoint {
	out := make([]Waypoint, 0, len(g.order))
	for _, id := range g.order {
		wp := Waypoint{
			ID:          id,
			Position:    g.nodes[id].Position,
			Connections: make([]NodeID, 0, len(g.edges[id])),
		}
		for _, e := range g.edges[id] {
			wp.Connections = append(wp.Connections, e.To)
		}
		out = append(out, wp)
	}
	return out
}

// Save serializes the graph's waypoints to a JSON file
func Save(g *Graph, filename string) error {
	data, err := json.MarshalIndent(g.Waypoints(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadWaypoints reads waypoint tuples from a JSON file written by Save.
func LoadWaypoints(filename string) ([]Waypoint, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var waypoints []Waypoint
	if err := json.Unmarshal(data, &waypoints); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return waypoints, nil
}

// Load reads a JSON waypoint file and builds the graph from it.
func Load(filename string, log logging.Logger) (*Graph, error) {
	waypoints, err := LoadWaypoints(filename)
	if err != nil {
		return nil, err
	}
	return Build(waypoints, log)
}

// Segment is a straight line between two node positions.
type Segment [2]Vec3

// LineStrings returns the graph edges as segments for visualization. A pair
// of opposing edges yields a single segment.
func (g *Graph) LineStrings() []Segment {
	lines := make([]Segment, 0, g.numEdges)

	// Use a map to avoid duplicate edges (since most edges are bidirectional)
	seen := make(map[[2]NodeID]bool)

	for _, id := range g.order {
		for _, e := range g.edges[id] {
			key := [2]NodeID{e.From, e.To}
			if e.To < e.From {
				key = [2]NodeID{e.To, e.From}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			lines = append(lines, Segment{g.nodes[e.From].Position, g.nodes[e.To].Position})
		}
	}

	return lines
}
