package astar

import "fleet-planner/internal/graph"

// record is the bookkeeping for one node during a query.
type record struct {
	node           graph.NodeID
	edge           graph.Edge // edge used to reach node; zero for the start
	costSoFar      float64
	estimatedTotal float64
	seq            uint64 // insertion order, breaks estimate ties
	index          int    // index in the heap, -1 when popped
}

// frontier implements heap.Interface for the open set
type frontier []*record

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].estimatedTotal != f[j].estimatedTotal {
		return f[i].estimatedTotal < f[j].estimatedTotal
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
	f[i].index = i
	f[j].index = j
}

func (f *frontier) Push(x interface{}) {
	n := len(*f)
	rec := x.(*record)
	rec.index = n
	*f = append(*f, rec)
}

func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	rec := old[n-1]
	old[n-1] = nil
	rec.index = -1
	*f = old[0 : n-1]
	return rec
}
