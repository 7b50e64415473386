package aco

import (
	"errors"
	"fmt"

	"fleet-planner/internal/astar"
	"fleet-planner/internal/graph"
	"fleet-planner/internal/logging"
)

var (
	// ErrNoGoals indicates a tour request without any known goal.
	ErrNoGoals = errors.New("aco: no reachable goals")

	// ErrTourDisconnected indicates a tour that cannot be joined to its start.
	ErrTourDisconnected = errors.New("aco: tour cannot be connected to start")
)

// Tour is a planned loop from a start waypoint through an ordered set of goals
// and back.
type Tour struct {
	First graph.NodeID // goal the tour enters at
	Goals []*Edge      // optimised goal-graph route
	Path  []graph.Edge // waypoint edges from start, through the goals, back to start
}

// PlanTour builds the goal graph, enters it at the goal closest to start,
// optimises the goal order and wraps the result in A* legs from and back to
// start.
func (e *Engine) PlanTour(searcher *astar.Searcher, g *graph.Graph, start graph.NodeID,
	goals []graph.NodeID, log logging.Logger) (Tour, error) {
	if log == nil {
		log = logging.NoOp{}
	}
	if searcher == nil {
		searcher = astar.New(astar.WithLogger(log))
	}

	startNode, ok := g.Node(start)
	if !ok {
		return Tour{}, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, start)
	}

	var known []graph.NodeID
	seen := make(map[graph.NodeID]struct{}, len(goals))
	for _, goal := range goals {
		if _, dup := seen[goal]; dup || !g.Has(goal) {
			continue
		}
		seen[goal] = struct{}{}
		known = append(known, goal)
	}
	if len(known) == 0 {
		return Tour{}, ErrNoGoals
	}

	edges := BuildGoalGraph(searcher, g, known, e.cfg.DefaultPheromone, log)

	t := Tour{First: known[0]}
	if len(edges) > 0 {
		if id, ok := ClosestGoal(g, edges, startNode.Position); ok {
			t.First = id
		}
		t.Goals = e.Optimize(known, edges, t.First)
	}

	body := Expand(t.Goals)
	last := t.First
	if len(body) > 0 {
		last = body[len(body)-1].To
	}

	lead := searcher.FindPath(g, start, t.First)
	tail := searcher.FindPath(g, last, start)
	if (start != t.First && len(lead) == 0) || (last != start && len(tail) == 0) {
		return Tour{}, fmt.Errorf("%w: enters at %s, leaves at %s", ErrTourDisconnected, t.First, last)
	}

	t.Path = make([]graph.Edge, 0, len(lead)+len(body)+len(tail))
	t.Path = append(t.Path, lead...)
	t.Path = append(t.Path, body...)
	t.Path = append(t.Path, tail...)
	return t, nil
}
