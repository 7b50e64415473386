package fleet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-planner/internal/graph"
)

func edgeTo(from, to graph.NodeID) graph.Edge {
	return graph.Edge{From: from, To: to, Cost: 1}
}

func TestCargoClamps(t *testing.T) {
	c := NewCargo(20)
	assert.Equal(t, MaxPackages, c.Count())
	assert.True(t, c.Full())

	assert.Equal(t, 0, c.Add(3))
	assert.Equal(t, 5, c.Remove(5))
	assert.Equal(t, 10, c.Count())
	assert.Equal(t, 10, c.Remove(99))
	assert.Zero(t, c.Count())
	assert.Zero(t, c.Remove(1))
	assert.Zero(t, c.Add(-4))
}

func TestSpeed(t *testing.T) {
	assert.InDelta(t, 5.0, Speed(5, 0), 1e-12)
	assert.InDelta(t, 0.5, Speed(5, MaxPackages), 1e-12)
	assert.InDelta(t, 5-5*0.9*3/15, Speed(5, 3), 1e-12)
	assert.InDelta(t, 0.5, Speed(5, 40), 1e-12)
}

func TestTickHeavierAgentYields(t *testing.T) {
	coord := NewCoordinator(nil)
	require.NoError(t, coord.Begin("agent1", edgeTo("a", "X"), 3))
	require.NoError(t, coord.Begin("agent2", edgeTo("b", "X"), 5))

	d := coord.Tick()
	assert.Equal(t, []AgentID{"agent2"}, d.Paused)
	assert.Empty(t, d.Resumed)
	assert.True(t, coord.Waiting("agent2"))
	assert.False(t, coord.Waiting("agent1"))
}

func TestTickPauseOrderIndependentOfLoadOrder(t *testing.T) {
	d := Tick([]Entry{
		{Agent: "heavy", Edge: edgeTo("a", "X"), Load: 9},
		{Agent: "light", Edge: edgeTo("b", "X"), Load: 2},
	})
	assert.Equal(t, []AgentID{"heavy"}, d.Paused)
}

func TestTickEqualLoadLastVisitorDecides(t *testing.T) {
	// "first" pauses "second", then "second" is resumed on its own turn and
	// pauses "first" because its load is not strictly larger.
	entries := []Entry{
		{Agent: "first", Edge: edgeTo("a", "X"), Load: 4},
		{Agent: "second", Edge: edgeTo("b", "X"), Load: 4},
	}
	next, d := tick(entries)
	assert.Equal(t, []AgentID{"first"}, d.Paused)
	assert.Empty(t, d.Resumed)

	// Stable on the following tick.
	_, d = tick(next)
	assert.True(t, d.Empty())
}

func TestTickPauseHoldsWhileContended(t *testing.T) {
	coord := NewCoordinator(nil)
	require.NoError(t, coord.Begin("agent1", edgeTo("a", "X"), 3))
	require.NoError(t, coord.Begin("agent2", edgeTo("b", "X"), 5))
	coord.Tick()

	for i := 0; i < 3; i++ {
		d := coord.Tick()
		assert.True(t, d.Empty(), "tick %d: %+v", i, d)
		assert.True(t, coord.Waiting("agent2"))
	}
}

func TestTickUncontendedAgentIsNeverPaused(t *testing.T) {
	coord := NewCoordinator(nil)
	require.NoError(t, coord.Begin("agent1", edgeTo("a", "X"), 3))
	require.NoError(t, coord.Begin("agent2", edgeTo("b", "X"), 5))
	coord.Tick()

	require.NoError(t, coord.Begin("agent3", edgeTo("c", "Y"), 7))
	d := coord.Tick()
	assert.NotContains(t, d.Paused, AgentID("agent3"))
	assert.False(t, coord.Waiting("agent3"))
}

func TestTickResumesLoneWaitingAgent(t *testing.T) {
	d := Tick([]Entry{
		{Agent: "agent3", Edge: edgeTo("c", "Y"), Load: 7, Waiting: true},
		{Agent: "agent1", Edge: edgeTo("a", "X"), Load: 1},
	})
	assert.Equal(t, []AgentID{"agent3"}, d.Resumed)
	assert.Empty(t, d.Paused)
}

func TestTickResumesAfterContenderFinishes(t *testing.T) {
	coord := NewCoordinator(nil)
	require.NoError(t, coord.Begin("agent1", edgeTo("a", "X"), 3))
	require.NoError(t, coord.Begin("agent2", edgeTo("b", "X"), 5))
	coord.Tick()

	coord.Finish("agent1")
	d := coord.Tick()
	assert.Equal(t, []AgentID{"agent2"}, d.Resumed)
	assert.False(t, coord.Waiting("agent2"))
	assert.Equal(t, 1, coord.Len())
}

func TestTickTwoWaitingResumesFirst(t *testing.T) {
	entries := []Entry{
		{Agent: "w1", Edge: edgeTo("a", "X"), Load: 2, Waiting: true},
		{Agent: "w2", Edge: edgeTo("b", "X"), Load: 8, Waiting: true},
	}
	next, d := tick(entries)
	assert.Equal(t, []AgentID{"w1"}, d.Resumed)
	assert.Empty(t, d.Paused)
	assert.False(t, next[0].Waiting)
	assert.True(t, next[1].Waiting)
	// The snapshot passed in is left alone.
	assert.True(t, entries[0].Waiting)
}

func TestTickDifferentDestinationsUntouched(t *testing.T) {
	d := Tick([]Entry{
		{Agent: "a", Edge: edgeTo("p", "X"), Load: 9},
		{Agent: "b", Edge: edgeTo("X", "p"), Load: 1},
	})
	assert.True(t, d.Empty())
	assert.True(t, Tick(nil).Empty())
}

func TestCoordinatorErrors(t *testing.T) {
	coord := NewCoordinator(nil)
	assert.ErrorIs(t, coord.Begin("", edgeTo("a", "b"), 0), ErrEmptyAgentID)
	require.NoError(t, coord.Begin("a1", edgeTo("a", "b"), 0))
	assert.True(t, errors.Is(coord.Begin("a1", edgeTo("a", "b"), 0), ErrAgentExists))
	assert.ErrorIs(t, coord.Transition("ghost", edgeTo("a", "b")), ErrUnknownAgent)

	require.NoError(t, coord.Transition("a1", edgeTo("b", "c")))
	entries := coord.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, graph.NodeID("c"), entries[0].Edge.To)

	coord.Finish("ghost")
	assert.Equal(t, 1, coord.Len())
	assert.False(t, coord.Waiting("ghost"))
}
