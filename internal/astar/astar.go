// Package astar finds shortest paths between two waypoints with A*.
//
// The frontier is ordered by estimated total cost (cost so far plus the
// heuristic). Records with equal estimates leave the frontier in insertion
// order, and a record is only replaced when a strictly cheaper cost so far is
// found, so results are reproducible for a given graph.
package astar

import (
	"container/heap"
	"time"

	"fleet-planner/internal/graph"
	"fleet-planner/internal/logging"
	"fleet-planner/internal/metrics"
)

// Heuristic estimates the remaining cost from a node to the goal.
type Heuristic func(from, goal graph.Node) float64

// Euclidean is the straight-line distance between two nodes. It is admissible
// and consistent whenever edge costs are Euclidean distances.
func Euclidean(from, goal graph.Node) float64 {
	return from.Position.Distance(goal.Position)
}

// Result is the outcome of a single query.
type Result struct {
	Path     []graph.Edge
	Cost     float64
	Expanded int // records popped from the frontier
}

// Found reports whether a non-empty path was produced.
func (r Result) Found() bool { return len(r.Path) > 0 }

// Searcher runs A* queries. It holds no per-query state and may be reused.
type Searcher struct {
	heuristic Heuristic
	log       logging.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithHeuristic replaces the Euclidean heuristic.
func WithHeuristic(h Heuristic) Option {
	return func(s *Searcher) {
		if h != nil {
			s.heuristic = h
		}
	}
}

// WithLogger sets the logger used for configuration problems and summaries.
func WithLogger(l logging.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Searcher.
func New(opts ...Option) *Searcher {
	s := &Searcher{heuristic: Euclidean, log: logging.NoOp{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindPath returns the edges of a shortest path from start to goal using h,
// or an empty slice if there is none or start equals goal.
func FindPath(g *graph.Graph, start, goal graph.NodeID, h Heuristic) []graph.Edge {
	return New(WithHeuristic(h)).FindPath(g, start, goal)
}

// FindPath returns the edges of a shortest path from start to goal. An empty
// result means unreachable.
func (s *Searcher) FindPath(g *graph.Graph, start, goal graph.NodeID) []graph.Edge {
	return s.Search(g, start, goal).Path
}

// Search runs one query and reports the path together with its cost and the
// number of expanded records.
func (s *Searcher) Search(g *graph.Graph, start, goal graph.NodeID) Result {
	began := time.Now()

	if g == nil || start == "" || goal == "" {
		s.log.Error("path query without graph, start or goal", "start", start, "goal", goal)
		metrics.ObservePathQuery(metrics.ResultInvalid, 0, time.Since(began))
		return Result{Path: []graph.Edge{}}
	}
	startNode, okStart := g.Node(start)
	goalNode, okGoal := g.Node(goal)
	if !okStart || !okGoal {
		s.log.Error("path query references unknown waypoint", "start", start, "goal", goal,
			"start_known", okStart, "goal_known", okGoal)
		metrics.ObservePathQuery(metrics.ResultInvalid, 0, time.Since(began))
		return Result{Path: []graph.Edge{}}
	}
	if start == goal {
		metrics.ObservePathQuery(metrics.ResultTrivial, 0, time.Since(began))
		return Result{Path: []graph.Edge{}}
	}

	q := newQuery(g, goalNode, s.heuristic)
	res := q.run(startNode)

	result := metrics.ResultFound
	if !res.Found() {
		result = metrics.ResultUnreachable
		s.log.Debug("no path found", "start", start, "goal", goal, "expanded", res.Expanded)
	}
	metrics.ObservePathQuery(result, res.Expanded, time.Since(began))
	return res
}

// query holds the open and closed sets of one search.
type query struct {
	g         *graph.Graph
	goal      graph.Node
	heuristic Heuristic

	open    frontier
	inOpen  map[graph.NodeID]*record
	closed  map[graph.NodeID]*record
	records map[graph.NodeID]*record
	seq     uint64
}

func newQuery(g *graph.Graph, goal graph.Node, h Heuristic) *query {
	return &query{
		g:         g,
		goal:      goal,
		heuristic: h,
		inOpen:    make(map[graph.NodeID]*record),
		closed:    make(map[graph.NodeID]*record),
		records:   make(map[graph.NodeID]*record),
	}
}

func (q *query) push(r *record) {
	q.seq++
	r.seq = q.seq
	heap.Push(&q.open, r)
	q.inOpen[r.node] = r
	q.records[r.node] = r
}

func (q *query) run(start graph.Node) Result {
	heap.Init(&q.open)
	q.push(&record{
		node:           start.ID,
		costSoFar:      0,
		estimatedTotal: q.heuristic(start, q.goal),
	})

	expanded := 0
	var current *record
	for q.open.Len() > 0 {
		current = heap.Pop(&q.open).(*record)
		delete(q.inOpen, current.node)
		expanded++

		if current.node == q.goal.ID {
			path := q.reconstruct(current, start.ID)
			return Result{Path: path, Cost: current.costSoFar, Expanded: expanded}
		}

		for _, e := range q.g.EdgesFrom(current.node) {
			q.relax(current, e)
		}

		q.closed[current.node] = current
	}

	return Result{Path: []graph.Edge{}, Expanded: expanded}
}

// relax offers the path through e to the edge's destination.
func (q *query) relax(current *record, e graph.Edge) {
	cost := current.costSoFar + e.Cost

	var (
		rec       *record
		remaining float64
	)
	if closedRec, ok := q.closed[e.To]; ok {
		if closedRec.costSoFar <= cost {
			return
		}
		// A cheaper route to an expanded node reopens it.
		delete(q.closed, e.To)
		rec = closedRec
		remaining = rec.estimatedTotal - rec.costSoFar
	} else if openRec, ok := q.inOpen[e.To]; ok {
		if openRec.costSoFar <= cost {
			return
		}
		rec = openRec
		remaining = rec.estimatedTotal - rec.costSoFar
	} else {
		to, _ := q.g.Node(e.To)
		rec = &record{node: e.To}
		remaining = q.heuristic(to, q.goal)
	}

	rec.costSoFar = cost
	rec.edge = e
	rec.estimatedTotal = cost + remaining

	if _, ok := q.inOpen[rec.node]; ok {
		heap.Fix(&q.open, rec.index)
		return
	}
	q.push(rec)
}

// reconstruct walks the edge links back from the goal record and returns the
// edges in start to goal order.
func (q *query) reconstruct(goal *record, start graph.NodeID) []graph.Edge {
	var reversed []graph.Edge
	for rec := goal; rec != nil && rec.node != start; rec = q.records[rec.edge.From] {
		reversed = append(reversed, rec.edge)
		if len(reversed) > len(q.records) {
			// Parent links can only cycle through zero-cost loops.
			return []graph.Edge{}
		}
	}

	path := make([]graph.Edge, len(reversed))
	for i, e := range reversed {
		path[len(reversed)-1-i] = e
	}
	return path
}

// Cost sums the edge costs of a path.
func Cost(path []graph.Edge) float64 {
	total := 0.0
	for _, e := range path {
		total += e.Cost
	}
	return total
}
