package aco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-planner/internal/astar"
	"fleet-planner/internal/graph"
)

func TestGenerateRouteFollowsStrongestEdge(t *testing.T) {
	edges := []*Edge{
		NewEdge(graph.Edge{From: "a", To: "b", Cost: 1}, 0.2),
		NewEdge(graph.Edge{From: "a", To: "c", Cost: 1}, 0.9),
		NewEdge(graph.Edge{From: "c", To: "b", Cost: 1}, 0.5),
		NewEdge(graph.Edge{From: "c", To: "a", Cost: 1}, 0.4),
	}
	// b has no outgoing edges.
	assert.Equal(t, []string{"a>c", "c>b"}, pairs(GenerateRoute("a", 10, edges)))
}

func TestGenerateRouteStopsOnReturnToStart(t *testing.T) {
	edges := complete([]graph.NodeID{"a", "b", "c"}, 1)
	assert.Equal(t, []string{"a>b", "b>a"}, pairs(GenerateRoute("a", 10, edges)))
}

func TestGenerateRouteRespectsMaxPathLength(t *testing.T) {
	edges := []*Edge{
		NewEdge(graph.Edge{From: "a", To: "b", Cost: 1}, 1),
		NewEdge(graph.Edge{From: "b", To: "c", Cost: 1}, 1),
		NewEdge(graph.Edge{From: "c", To: "b", Cost: 1}, 1),
	}
	for _, limit := range []int{1, 2, 3, 7} {
		route := GenerateRoute("a", limit, edges)
		assert.Len(t, route, limit)
	}
	assert.Empty(t, GenerateRoute("a", 0, edges))
	assert.Empty(t, GenerateRoute("a", -2, edges))
	assert.Empty(t, GenerateRoute("missing", 5, edges))
}

// goalGraph is a 2x2 square A B / D C with an isolated waypoint E.
func goalGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build([]graph.Waypoint{
		{ID: "A", Position: graph.Vec3{X: 0, Z: 0}, Connections: []graph.NodeID{"B", "D"}},
		{ID: "B", Position: graph.Vec3{X: 2, Z: 0}, Connections: []graph.NodeID{"C", "A"}},
		{ID: "C", Position: graph.Vec3{X: 2, Z: 2}, Connections: []graph.NodeID{"D", "B"}},
		{ID: "D", Position: graph.Vec3{X: 0, Z: 2}, Connections: []graph.NodeID{"A", "C"}},
		{ID: "E", Position: graph.Vec3{X: 9, Z: 9}},
	}, nil)
	require.NoError(t, err)
	return g
}

func TestBuildGoalGraph(t *testing.T) {
	g := goalGraph(t)
	edges := BuildGoalGraph(astar.New(), g, []graph.NodeID{"A", "C", "B", "E", "missing", "A"}, 0.7, nil)

	// E is unreachable both ways, the unknown goal and the duplicate are dropped.
	require.Equal(t, []string{"A>C", "A>B", "C>A", "C>B", "B>A", "B>C"}, pairs(edges))

	ac := edges[0]
	assert.InDelta(t, 2*1.4142135623730951, ac.Cost, 1e-12)
	assert.Equal(t, 0.7, ac.Pheromone)
	require.Len(t, ac.Route, 2)
	assert.Equal(t, graph.NodeID("A"), ac.Route[0].From)
	assert.Equal(t, graph.NodeID("C"), ac.Route[1].To)
}

func TestClosestGoal(t *testing.T) {
	g := goalGraph(t)
	edges := BuildGoalGraph(nil, g, []graph.NodeID{"A", "C"}, 1, nil)

	id, ok := ClosestGoal(g, edges, graph.Vec3{X: 1.6, Z: 1.9})
	require.True(t, ok)
	assert.Equal(t, graph.NodeID("C"), id)

	_, ok = ClosestGoal(g, nil, graph.Vec3{})
	assert.False(t, ok)
}

func TestExpand(t *testing.T) {
	g := goalGraph(t)
	edges := BuildGoalGraph(nil, g, []graph.NodeID{"A", "C"}, 1, nil)
	plain := NewEdge(graph.Edge{From: "A", To: "Z", Cost: 4}, 1)

	flat := Expand([]*Edge{edges[0], edges[1], plain})
	require.Len(t, flat, 5)
	for i := 1; i < 4; i++ {
		assert.Equal(t, flat[i-1].To, flat[i].From)
	}
	assert.Equal(t, plain.Edge, flat[4])
	assert.Empty(t, Expand(nil))
}

func TestPlanTour(t *testing.T) {
	g := goalGraph(t)
	e := newEngine(t, DefaultConfig(), WithSeed(9))

	tour, err := e.PlanTour(nil, g, "A", []graph.NodeID{"C", "B", "C"}, nil)
	require.NoError(t, err)
	assert.Equal(t, graph.NodeID("B"), tour.First)
	require.NotEmpty(t, tour.Goals)
	assert.Equal(t, graph.NodeID("B"), tour.Goals[0].From)

	require.NotEmpty(t, tour.Path)
	assert.Equal(t, graph.Edge{From: "A", To: "B", Cost: 2}, tour.Path[0])
	assert.Equal(t, graph.NodeID("A"), tour.Path[len(tour.Path)-1].To)
	for i := 1; i < len(tour.Path); i++ {
		assert.Equal(t, tour.Path[i-1].To, tour.Path[i].From)
	}
}

func TestPlanTourErrors(t *testing.T) {
	g := goalGraph(t)
	e := newEngine(t, DefaultConfig(), WithSeed(9))

	_, err := e.PlanTour(nil, g, "A", []graph.NodeID{"E"}, nil)
	assert.ErrorIs(t, err, ErrTourDisconnected)

	_, err = e.PlanTour(nil, g, "A", []graph.NodeID{"missing"}, nil)
	assert.ErrorIs(t, err, ErrNoGoals)

	_, err = e.PlanTour(nil, g, "nowhere", []graph.NodeID{"B"}, nil)
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}
