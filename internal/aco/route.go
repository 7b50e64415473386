package aco

import (
	"fleet-planner/internal/astar"
	"fleet-planner/internal/graph"
	"fleet-planner/internal/logging"
	"fleet-planner/internal/spatial"
)

// GenerateRoute follows the highest-pheromone outgoing edge from start. The
// first edge wins a tie. It stops at a dead end, on returning to start, or
// once maxPathLength edges have been taken.
func GenerateRoute(start graph.NodeID, maxPathLength int, edges []*Edge) []*Edge {
	if maxPathLength <= 0 {
		return []*Edge{}
	}
	adj := adjacency(edges)

	route := make([]*Edge, 0, maxPathLength)
	current := start
	for len(route) < maxPathLength {
		var best *Edge
		for _, edge := range adj[current] {
			if best == nil || edge.Pheromone > best.Pheromone {
				best = edge
			}
		}
		if best == nil {
			break
		}
		route = append(route, best)
		current = best.To
		if current == start {
			break
		}
	}
	return route
}

// BuildGoalGraph connects every ordered pair of distinct goals with an Edge
// whose cost is the straight-line distance between them and whose Route is
// the A* path through g. Pairs without a path and unknown goals are logged
// and skipped.
func BuildGoalGraph(searcher *astar.Searcher, g *graph.Graph, goals []graph.NodeID,
	pheromone float64, log logging.Logger) []*Edge {
	if log == nil {
		log = logging.NoOp{}
	}
	if searcher == nil {
		searcher = astar.New(astar.WithLogger(log))
	}

	known := make([]graph.Node, 0, len(goals))
	seen := make(map[graph.NodeID]struct{}, len(goals))
	for _, id := range goals {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		n, ok := g.Node(id)
		if !ok {
			log.Warn("goal is not a waypoint, skipping", "goal", id)
			continue
		}
		known = append(known, n)
	}

	var edges []*Edge
	for _, from := range known {
		for _, to := range known {
			if from.ID == to.ID {
				continue
			}
			path := searcher.FindPath(g, from.ID, to.ID)
			if len(path) == 0 {
				log.Warn("no path between goals", "from", from.ID, "to", to.ID)
				continue
			}
			edge := NewEdge(graph.Edge{
				From: from.ID,
				To:   to.ID,
				Cost: from.Position.Distance(to.Position),
			}, pheromone)
			edge.Route = path
			edges = append(edges, edge)
		}
	}

	log.Info("goal graph built", "goals", len(known), "edges", len(edges))
	return edges
}

// ClosestGoal returns the edge source nearest to position.
func ClosestGoal(g *graph.Graph, edges []*Edge, position graph.Vec3) (graph.NodeID, bool) {
	seen := make(map[graph.NodeID]struct{})
	var sources []graph.Node
	for _, e := range edges {
		if _, ok := seen[e.From]; ok {
			continue
		}
		seen[e.From] = struct{}{}
		if n, ok := g.Node(e.From); ok {
			sources = append(sources, n)
		}
	}

	id, _, ok := spatial.New(sources).Nearest(position)
	return id, ok
}
