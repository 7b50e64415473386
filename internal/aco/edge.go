package aco

import "fleet-planner/internal/graph"

// Edge is a goal-graph connection carrying a pheromone level. When the goal
// graph is a reduction of a waypoint graph, Route holds the waypoint edges
// that realise the connection.
type Edge struct {
	graph.Edge

	// Pheromone is reinforced by ant tours and decays by evaporation. Never negative.
	Pheromone float64

	// PathProbability is only meaningful inside a single ant step and is
	// reset to zero after every iteration.
	PathProbability float64

	Route []graph.Edge
}

// NewEdge wraps e with an initial pheromone level.
func NewEdge(e graph.Edge, pheromone float64) *Edge {
	return &Edge{Edge: e, Pheromone: pheromone}
}

// Ant is one tour construction within one iteration.
type Ant struct {
	Start  graph.NodeID
	Tour   []*Edge
	Length float64 // sum of traversed edge costs
}

func (a *Ant) travel(e *Edge) {
	a.Tour = append(a.Tour, e)
	a.Length += e.Cost
}

// Expand flattens a tour into the waypoint edges an agent drives along.
// Edges without a sub-route contribute themselves.
func Expand(route []*Edge) []graph.Edge {
	var out []graph.Edge
	for _, e := range route {
		if len(e.Route) == 0 {
			out = append(out, e.Edge)
			continue
		}
		out = append(out, e.Route...)
	}
	return out
}

// adjacency indexes edges by source node, preserving input order.
func adjacency(edges []*Edge) map[graph.NodeID][]*Edge {
	adj := make(map[graph.NodeID][]*Edge)
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e)
	}
	return adj
}
