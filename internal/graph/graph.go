// Package graph holds the directed waypoint graph the planners search over.
package graph

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyNodeID indicates a node or edge endpoint with an empty identifier.
	ErrEmptyNodeID = errors.New("graph: node ID is empty")

	// ErrNodeNotFound indicates an edge endpoint that was never added.
	ErrNodeNotFound = errors.New("graph: node not found")

	// ErrDuplicateNode indicates a second AddNode for the same identifier.
	ErrDuplicateNode = errors.New("graph: node already exists")

	// ErrNegativeCost indicates an explicit edge cost below zero.
	ErrNegativeCost = errors.New("graph: edge cost must be non-negative")
)

// NodeID identifies a waypoint. Node identity is the ID, never the position.
type NodeID string

// Vec3 is a position in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance calculates Euclidean distance between two points
func (p Vec3) Distance(other Vec3) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Node is a waypoint with a fixed position.
type Node struct {
	ID       NodeID `json:"id"`
	Position Vec3   `json:"position"`
}

// Edge represents a directed connection between two nodes with a cost
type Edge struct {
	From NodeID  `json:"from"`
	To   NodeID  `json:"to"`
	Cost float64 `json:"cost"` // Euclidean distance unless set explicitly
}

func (e Edge) String() string {
	return fmt.Sprintf("%s->%s (%.3f)", e.From, e.To, e.Cost)
}

// Graph is an append-only directed multigraph. Nodes and outgoing edges are
// kept in insertion order so that searches are reproducible.
type Graph struct {
	nodes    map[NodeID]Node
	order    []NodeID
	edges    map[NodeID][]Edge
	numEdges int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[NodeID]Node),
		edges: make(map[NodeID][]Edge),
	}
}

// AddNode registers a waypoint. Positions cannot be changed afterwards.
func (g *Graph) AddNode(id NodeID, pos Vec3) error {
	if id == "" {
		return ErrEmptyNodeID
	}
	if _, exists := g.nodes[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	g.nodes[id] = Node{ID: id, Position: pos}
	g.order = append(g.order, id)
	return nil
}

// AddEdge adds a directed edge whose cost is the distance between the two
// endpoint positions.
func (g *Graph) AddEdge(from, to NodeID) (Edge, error) {
	a, b, err := g.endpoints(from, to)
	if err != nil {
		return Edge{}, err
	}
	return g.appendEdge(Edge{From: from, To: to, Cost: a.Position.Distance(b.Position)}), nil
}

// AddEdgeWithCost adds a directed edge with an explicit cost.
func (g *Graph) AddEdgeWithCost(from, to NodeID, cost float64) (Edge, error) {
	if cost < 0 || math.IsNaN(cost) {
		return Edge{}, fmt.Errorf("%w: %s->%s cost=%v", ErrNegativeCost, from, to, cost)
	}
	if _, _, err := g.endpoints(from, to); err != nil {
		return Edge{}, err
	}
	return g.appendEdge(Edge{From: from, To: to, Cost: cost}), nil
}

func (g *Graph) endpoints(from, to NodeID) (Node, Node, error) {
	if from == "" || to == "" {
		return Node{}, Node{}, ErrEmptyNodeID
	}
	a, ok := g.nodes[from]
	if !ok {
		return Node{}, Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	b, ok := g.nodes[to]
	if !ok {
		return Node{}, Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	return a, b, nil
}

func (g *Graph) appendEdge(e Edge) Edge {
	g.edges[e.From] = append(g.edges[e.From], e)
	g.numEdges++
	return e
}

// EdgesFrom returns the outgoing edges of id in insertion order. The slice
// must not be modified.
func (g *Graph) EdgesFrom(id NodeID) []Edge {
	return g.edges[id]
}

// Node looks up a node by ID.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Has reports whether id was added to the graph.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.order) }

// NumEdges returns the number of edges, counting parallel edges separately.
func (g *Graph) NumEdges() int { return g.numEdges }
