// Package structures provides the ordered-container and sweep-support data
// structures shared by the flow, geomorphon, and raster-to-vector cores: a
// FIFO queue, an A*-order min-heap, and a union-find-style equivalence
// table.
package structures

import "container/heap"

// GridCell identifies a single raster cell carried through the ordered
// containers in this package.
type GridCell struct {
	Row, Col int
}

// rankedCell is one entry of the AStarHeap's underlying container/heap.
// sequence breaks ties between cells of equal priority in FIFO (insertion)
// order, matching the teacher's PQueue tie-breaking in breachDepressions.go
// and priorityqueue.go, so that flood order is reproducible across runs.
type rankedCell struct {
	cell     GridCell
	priority float64
	sequence uint64
	index    int
}

type rankedCellHeap []*rankedCell

func (h rankedCellHeap) Len() int { return len(h) }

func (h rankedCellHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].sequence < h[j].sequence
}

func (h rankedCellHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *rankedCellHeap) Push(x any) {
	e := x.(*rankedCell)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *rankedCellHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// AStarHeap is a min-priority queue of grid cells ordered primarily by a
// caller-supplied priority (elevation, for the flood-fill and accumulation
// passes of Core A) and secondarily by insertion sequence, so that cells of
// equal priority pop out in the order they were pushed. This is the
// "A*-ordered" container spec.md §3 and §5 require for deterministic flow
// accumulation.
type AStarHeap struct {
	h    rankedCellHeap
	next uint64
}

// NewAStarHeap returns an empty AStarHeap.
func NewAStarHeap() *AStarHeap {
	q := &AStarHeap{}
	heap.Init(&q.h)
	return q
}

// Push inserts cell with the given priority.
func (q *AStarHeap) Push(cell GridCell, priority float64) {
	heap.Push(&q.h, &rankedCell{cell: cell, priority: priority, sequence: q.next})
	q.next++
}

// Pop removes and returns the lowest-priority cell. ok is false if the heap
// is empty.
func (q *AStarHeap) Pop() (cell GridCell, priority float64, ok bool) {
	if q.h.Len() == 0 {
		return GridCell{}, 0, false
	}
	e := heap.Pop(&q.h).(*rankedCell)
	return e.cell, e.priority, true
}

// Len returns the number of cells currently queued.
func (q *AStarHeap) Len() int { return q.h.Len() }
