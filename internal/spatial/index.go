// Package spatial answers nearest-waypoint queries over node positions.
package spatial

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"fleet-planner/internal/graph"
)

// pointTolerance is the half-size of the box each waypoint occupies in the tree.
const pointTolerance = 1e-9

// nodeEntry wraps a waypoint for R-tree storage
type nodeEntry struct {
	node graph.Node
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (n *nodeEntry) Bounds() rtreego.Rect {
	return n.bbox
}

// Index manages spatial queries over a fixed set of waypoints.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// New creates an index over the given nodes.
func New(nodes []graph.Node) *Index {
	tree := rtreego.NewTree(3, 25, 50) // 3D, min 25, max 50 entries per node

	for _, n := range nodes {
		tree.Insert(&nodeEntry{
			node: n,
			bbox: toPoint(n.Position).ToRect(pointTolerance),
		})
	}

	return &Index{tree: tree, size: len(nodes)}
}

// FromGraph indexes every node of g.
func FromGraph(g *graph.Graph) *Index {
	return New(g.Nodes())
}

// Len returns the number of indexed waypoints.
func (idx *Index) Len() int { return idx.size }

// Nearest finds the waypoint closest to pos. ok is false for an empty index.
func (idx *Index) Nearest(pos graph.Vec3) (id graph.NodeID, dist float64, ok bool) {
	if idx.size == 0 {
		return "", math.MaxFloat64, false
	}
	hit := idx.tree.NearestNeighbor(toPoint(pos))
	if hit == nil {
		return "", math.MaxFloat64, false
	}
	entry := hit.(*nodeEntry)
	return entry.node.ID, pos.Distance(entry.node.Position), true
}

// Within returns the waypoints no farther than radius from pos, closest
// first. Equal distances keep ID order.
func (idx *Index) Within(pos graph.Vec3, radius float64) []graph.NodeID {
	if idx.size == 0 || radius < 0 {
		return nil
	}

	side := 2 * radius
	if side < pointTolerance {
		side = pointTolerance
	}
	bbox, err := rtreego.NewRect(
		rtreego.Point{pos.X - radius, pos.Y - radius, pos.Z - radius},
		[]float64{side, side, side},
	)
	if err != nil {
		return nil
	}

	type hit struct {
		id   graph.NodeID
		dist float64
	}
	var hits []hit
	for _, item := range idx.tree.SearchIntersect(bbox) {
		entry := item.(*nodeEntry)
		if d := pos.Distance(entry.node.Position); d <= radius {
			hits = append(hits, hit{id: entry.node.ID, dist: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].id < hits[j].id
	})

	ids := make([]graph.NodeID, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

func toPoint(p graph.Vec3) rtreego.Point {
	return rtreego.Point{p.X, p.Y, p.Z}
}
