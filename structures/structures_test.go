package structures

import "testing"

func TestAStarHeapOrdersByPriorityThenFIFO(t *testing.T) {
	q := NewAStarHeap()
	q.Push(GridCell{0, 0}, 5)
	q.Push(GridCell{0, 1}, 3)
	q.Push(GridCell{0, 2}, 3)
	q.Push(GridCell{0, 3}, 1)

	want := []GridCell{{0, 3}, {0, 1}, {0, 2}, {0, 0}}
	for i, w := range want {
		got, _, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: heap emptied early", i)
		}
		if got != w {
			t.Fatalf("pop %d: got %v, want %v", i, got, w)
		}
	}
	if _, _, ok := q.Pop(); ok {
		t.Fatalf("expected empty heap")
	}
}

func TestEquivalenceTableUnionKeepsSmallestLabel(t *testing.T) {
	eq := NewEquivalenceTable(0)
	a := eq.NewClass()
	b := eq.NewClass()
	c := eq.NewClass()
	eq.Union(b, c)
	eq.Union(a, c)

	root := eq.Find(a)
	if root != 0 {
		t.Fatalf("expected smallest label 0 to win, got %d", root)
	}
	if eq.Find(b) != root || eq.Find(c) != root {
		t.Fatalf("expected all three classes to share representative %d: b=%d c=%d", root, eq.Find(b), eq.Find(c))
	}
}

func TestEquivalenceTableDistinctClassesStayDistinct(t *testing.T) {
	eq := NewEquivalenceTable(4)
	if eq.Find(1) == eq.Find(2) {
		t.Fatalf("expected unmerged classes to remain distinct")
	}
}

func TestCellQueueFIFOOrder(t *testing.T) {
	q := NewCellQueue()
	q.Push(GridCell{0, 0})
	q.Push(GridCell{1, 1})
	q.Push(GridCell{2, 2})

	want := []GridCell{{0, 0}, {1, 1}, {2, 2}}
	for i, w := range want {
		got, ok := q.Pop()
		if !ok || got != w {
			t.Fatalf("pop %d: got %v ok=%v, want %v", i, got, ok, w)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected empty queue")
	}
	if q.Len() != 0 {
		t.Fatalf("expected len 0, got %d", q.Len())
	}
}
