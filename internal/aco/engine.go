// Package aco optimises a tour over a goal graph with an ant colony.
//
// Each iteration sends a fresh set of ants from random start nodes. An ant
// always takes the outgoing edge with the highest normalised desirability
// (pheromone^alpha times inverse-cost^beta) among edges leading to unvisited
// nodes, so construction is deterministic given the start node. After every
// iteration the pheromone on each edge evaporates and is reinforced by
// Q/tourLength for every tour that used it. A route is then read off the
// pheromone levels with GenerateRoute.
package aco

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"fleet-planner/internal/graph"
	"fleet-planner/internal/logging"
	"fleet-planner/internal/metrics"
)

// minDistance replaces zero edge costs in the inverse-distance term.
const minDistance = 1e-9

// IterationHook observes the edge set after each pheromone update.
type IterationHook func(iteration int, ants []*Ant, edges []*Edge)

// Engine runs the colony. It is not safe for concurrent use because it owns
// its random source.
type Engine struct {
	cfg    Config
	rng    *rand.Rand
	log    logging.Logger
	onIter IterationHook
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used to pick ant start nodes.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithSeed seeds a private random source.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithIterationHook registers a callback invoked after every iteration.
func WithIterationHook(h IterationHook) Option {
	return func(e *Engine) {
		e.onIter = h
	}
}

// New validates cfg and builds an Engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		log: logging.NoOp{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine parameters.
func (e *Engine) Config() Config { return e.cfg }

// Optimize runs the configured number of iterations and ants and returns the
// route starting at start.
func (e *Engine) Optimize(nodes []graph.NodeID, edges []*Edge, start graph.NodeID) []*Edge {
	return e.OptimizeN(e.cfg.Iterations, e.cfg.Ants, nodes, edges, start, e.cfg.MaxPathLength)
}

// OptimizeN is Optimize with explicit iteration, ant and route length counts.
// Pheromone levels on edges are updated in place. A missing start is logged
// and yields nil.
func (e *Engine) OptimizeN(iterations, ants int, nodes []graph.NodeID, edges []*Edge,
	start graph.NodeID, maxPathLength int) []*Edge {
	if start == "" {
		e.log.Error("tour optimisation without start node", "nodes", len(nodes), "edges", len(edges))
		return nil
	}

	began := time.Now()
	adj := adjacency(edges)
	tours := 0

	for iter := 0; iter < iterations; iter++ {
		colony := make([]*Ant, 0, ants)
		if len(nodes) > 0 {
			for i := 0; i < ants; i++ {
				from := nodes[e.rng.Intn(len(nodes))]
				colony = append(colony, e.construct(from, len(nodes), adj))
			}
		}
		tours += len(colony)
		e.update(colony, edges)

		if e.onIter != nil {
			e.onIter(iter, colony, edges)
		}
	}

	route := GenerateRoute(start, maxPathLength, edges)
	metrics.ObserveACORun(tours, len(route), time.Since(began))
	e.log.Debug("tour optimised",
		"iterations", iterations,
		"ants", ants,
		"route_edges", len(route),
		"duration", time.Since(began))
	e.log.Debug(e.Summary(route))
	return route
}

// construct builds one ant tour. The ant stops when every node has been
// visited or it has no unvisited neighbour left.
func (e *Engine) construct(start graph.NodeID, nodeCount int, adj map[graph.NodeID][]*Edge) *Ant {
	ant := &Ant{Start: start}
	visited := make(map[graph.NodeID]struct{}, nodeCount)
	current := start

	candidates := make([]*Edge, 0, 8)
	for len(visited) < nodeCount {
		candidates = candidates[:0]
		for _, edge := range adj[current] {
			if _, seen := visited[edge.To]; !seen {
				candidates = append(candidates, edge)
			}
		}
		if len(candidates) == 0 {
			break
		}

		e.assignProbabilities(candidates)
		next := selectEdge(candidates)

		visited[current] = struct{}{}
		ant.travel(next)
		current = next.To
	}
	return ant
}

// desirability is pheromone^alpha * (1/cost)^beta.
func (e *Engine) desirability(edge *Edge) float64 {
	dist := edge.Cost
	if dist < minDistance {
		dist = minDistance
	}
	return math.Pow(edge.Pheromone, e.cfg.Alpha) * math.Pow(1/dist, e.cfg.Beta)
}

// assignProbabilities normalises desirability over the candidate set. A zero
// total leaves every candidate at probability zero.
func (e *Engine) assignProbabilities(candidates []*Edge) {
	total := 0.0
	for _, c := range candidates {
		c.PathProbability = e.desirability(c)
		total += c.PathProbability
	}
	for _, c := range candidates {
		if total > 0 && !math.IsInf(total, 0) {
			c.PathProbability /= total
		} else {
			c.PathProbability = 0
		}
	}
}

// selectEdge takes the highest probability, then the smaller cost, then the
// earlier candidate.
func selectEdge(candidates []*Edge) *Edge {
	best := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case c.PathProbability > best.PathProbability:
			best = c
		case c.PathProbability == best.PathProbability && c.Cost < best.Cost:
			best = c
		}
	}
	return best
}

// update evaporates every edge and adds the reinforcement laid down by the
// ants of one iteration.
func (e *Engine) update(colony []*Ant, edges []*Edge) {
	deposits := make(map[*Edge]float64)
	for _, ant := range colony {
		if ant.Length <= 0 {
			continue
		}
		deposit := e.cfg.Q / ant.Length
		for _, edge := range ant.Tour {
			deposits[edge] += deposit
		}
	}

	for _, edge := range edges {
		edge.Pheromone = (1-e.cfg.EvaporationFactor)*edge.Pheromone + deposits[edge]
		edge.PathProbability = 0
	}
}

// Summary renders the parameters and the edges of a route for diagnostics.
func (e *Engine) Summary(route []*Edge) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Route (Q: %g, Alpha: %g, Beta: %g, EvaporationFactor: %g, DefaultPheromone: %g)",
		e.cfg.Q, e.cfg.Alpha, e.cfg.Beta, e.cfg.EvaporationFactor, e.cfg.DefaultPheromone)
	for _, edge := range route {
		fmt.Fprintf(&b, " | FROM: %s, TO: %s (Pheromone Level: %g) |", edge.From, edge.To, edge.Pheromone)
	}
	return b.String()
}
