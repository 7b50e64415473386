package aco

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-planner/internal/graph"
)

// complete returns every ordered pair over ids with cost 1, in id order.
func complete(ids []graph.NodeID, pheromone float64) []*Edge {
	var edges []*Edge
	for _, from := range ids {
		for _, to := range ids {
			if from == to {
				continue
			}
			edges = append(edges, NewEdge(graph.Edge{From: from, To: to, Cost: 1}, pheromone))
		}
	}
	return edges
}

func pairs(route []*Edge) []string {
	out := make([]string, len(route))
	for i, e := range route {
		out[i] = fmt.Sprintf("%s>%s", e.From, e.To)
	}
	return out
}

func newEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, opts...)
	require.NoError(t, err)
	return e
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cases := map[string]struct {
		mutate func(*Config)
		want   error
	}{
		"evaporation above one": {func(c *Config) { c.EvaporationFactor = 1.5 }, ErrBadEvaporation},
		"negative q":            {func(c *Config) { c.Q = -1 }, ErrNegativeQ},
		"negative pheromone":    {func(c *Config) { c.DefaultPheromone = -0.1 }, ErrNegativePheromone},
		"negative ants":         {func(c *Config) { c.Ants = -1 }, ErrNegativeCount},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, tc.want), "got %v", err)

			_, err = New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestConstructTieTakesFirstEdge(t *testing.T) {
	// Three fully connected nodes with equal pheromone and cost: every
	// candidate ties, so the ant walks the first listed edge each step.
	edges := complete([]graph.NodeID{"x", "y", "z"}, 1.0)
	e := newEngine(t, DefaultConfig(), WithSeed(1))

	ant := e.construct("x", 3, adjacency(edges))
	assert.Equal(t, []string{"x>y", "y>z"}, pairs(ant.Tour))
	assert.InDelta(t, 2.0, ant.Length, 1e-12)
	assert.Equal(t, graph.NodeID("x"), ant.Start)
}

func TestConstructTieFallsBackToSmallerCost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Beta = 0 // cost has no influence on desirability
	e := newEngine(t, cfg, WithSeed(1))

	edges := []*Edge{
		NewEdge(graph.Edge{From: "x", To: "y", Cost: 2}, 1),
		NewEdge(graph.Edge{From: "x", To: "z", Cost: 1}, 1),
	}
	ant := e.construct("x", 3, adjacency(edges))
	require.NotEmpty(t, ant.Tour)
	assert.Equal(t, "x>z", pairs(ant.Tour)[0])
}

func TestConstructZeroPheromoneStillChoosesCheapest(t *testing.T) {
	e := newEngine(t, DefaultConfig(), WithSeed(1))
	edges := []*Edge{
		NewEdge(graph.Edge{From: "x", To: "y", Cost: 3}, 0),
		NewEdge(graph.Edge{From: "x", To: "z", Cost: 0}, 0),
	}
	ant := e.construct("x", 3, adjacency(edges))
	require.Len(t, ant.Tour, 1)
	assert.Equal(t, "x>z", pairs(ant.Tour)[0])
	assert.Zero(t, ant.Length)
}

func TestUpdateEvaporatesAndReinforces(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Q = 1
	cfg.EvaporationFactor = 0.5
	e := newEngine(t, cfg)

	edges := complete([]graph.NodeID{"x", "y", "z"}, 1.0)
	ant := e.construct("x", 3, adjacency(edges))
	e.update([]*Ant{ant, {Start: "z"}}, edges)

	for _, edge := range edges {
		want := 0.5
		if (edge.From == "x" && edge.To == "y") || (edge.From == "y" && edge.To == "z") {
			want = 1.0 // 0.5 evaporated + 1/2 deposit
		}
		assert.InDelta(t, want, edge.Pheromone, 1e-12, edge.String())
		assert.Zero(t, edge.PathProbability)
	}
}

func TestOptimizeKeepsPheromoneNonNegative(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EvaporationFactor = 1
	ids := []graph.NodeID{"a", "b", "c", "d", "e"}
	edges := complete(ids, cfg.DefaultPheromone)

	iterations := 0
	e := newEngine(t, cfg, WithSeed(3), WithIterationHook(func(_ int, ants []*Ant, edges []*Edge) {
		iterations++
		assert.Len(t, ants, 4)
		for _, edge := range edges {
			assert.GreaterOrEqual(t, edge.Pheromone, 0.0)
		}
	}))

	route := e.OptimizeN(20, 4, ids, edges, "a", 10)
	assert.Equal(t, 20, iterations)
	assert.NotEmpty(t, route)
	assert.Equal(t, graph.NodeID("a"), route[0].From)
}

func TestOptimizeIsDeterministicForSeed(t *testing.T) {
	build := func() ([]graph.NodeID, []*Edge) {
		rng := rand.New(rand.NewSource(11))
		ids := []graph.NodeID{"a", "b", "c", "d", "e", "f"}
		var edges []*Edge
		for _, from := range ids {
			for _, to := range ids {
				if from != to {
					edges = append(edges, NewEdge(graph.Edge{From: from, To: to, Cost: 1 + rng.Float64()*9}, 1))
				}
			}
		}
		return ids, edges
	}

	ids1, edges1 := build()
	ids2, edges2 := build()
	r1 := newEngine(t, DefaultConfig(), WithSeed(42)).OptimizeN(30, 10, ids1, edges1, "c", 15)
	r2 := newEngine(t, DefaultConfig(), WithRand(rand.New(rand.NewSource(42)))).OptimizeN(30, 10, ids2, edges2, "c", 15)

	assert.Equal(t, pairs(r1), pairs(r2))
	for i := range edges1 {
		assert.Equal(t, edges1[i].Pheromone, edges2[i].Pheromone)
	}
}

func TestOptimizeWithoutStart(t *testing.T) {
	edges := complete([]graph.NodeID{"a", "b"}, 1)
	e := newEngine(t, DefaultConfig(), WithSeed(1))
	assert.Nil(t, e.OptimizeN(5, 2, []graph.NodeID{"a", "b"}, edges, "", 5))
	for _, edge := range edges {
		assert.Equal(t, 1.0, edge.Pheromone)
	}
}

func TestOptimizeZeroIterationsReadsInitialPheromone(t *testing.T) {
	edges := complete([]graph.NodeID{"a", "b", "c"}, 1)
	e := newEngine(t, DefaultConfig(), WithSeed(1))
	route := e.OptimizeN(0, 10, []graph.NodeID{"a", "b", "c"}, edges, "a", 5)
	assert.Equal(t, []string{"a>b", "b>a"}, pairs(route))
	for _, edge := range edges {
		assert.Equal(t, 1.0, edge.Pheromone)
	}
}

func TestSummary(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	route := []*Edge{NewEdge(graph.Edge{From: "a", To: "b", Cost: 1}, 0.25)}
	s := e.Summary(route)
	assert.True(t, strings.HasPrefix(s, "Route (Q: 0.0006, Alpha: 1, Beta: 0.0001"), s)
	assert.Contains(t, s, "| FROM: a, TO: b (Pheromone Level: 0.25) |")
}
