package searcher

import (
	"math/rand/v2"
	"sort"
	"testing"
)

func TestPriorityQueue(t *testing.T) {
	t.Run("MinHeap", func(t *testing.T) {
		pq := NewPriorityQueue(false)

		pq.Push(Item{ID: 1, Distance: 10.0})
		pq.Push(Item{ID: 2, Distance: 5.0})
		pq.Push(Item{ID: 3, Distance: 20.0})

		if pq.Len() != 3 {
			t.Errorf("expected len 3, got %d", pq.Len())
		}

		top, ok := pq.Top()
		if !ok || top.Distance != 5.0 {
			t.Errorf("expected top 5.0, got %v", top.Distance)
		}

		for _, want := range []float32{5, 10, 20} {
			item, ok := pq.Pop()
			if !ok || item.Distance != want {
				t.Errorf("expected %v, got %v", want, item.Distance)
			}
		}

		if _, ok := pq.Pop(); ok {
			t.Error("expected empty heap")
		}
	})

	t.Run("MaxHeap", func(t *testing.T) {
		pq := NewPriorityQueue(true)

		pq.Push(Item{ID: 1, Distance: 10.0})
		pq.Push(Item{ID: 2, Distance: 5.0})
		pq.Push(Item{ID: 3, Distance: 20.0})

		top, ok := pq.Top()
		if !ok || top.Distance != 20.0 {
			t.Errorf("expected top 20.0, got %v", top.Distance)
		}
	})

	t.Run("TieBreakByID", func(t *testing.T) {
		minHeap := NewPriorityQueue(false)
		maxHeap := NewPriorityQueue(true)
		for _, id := range []uint32{7, 3, 9, 1} {
			minHeap.Push(Item{ID: id, Distance: 1})
			maxHeap.Push(Item{ID: id, Distance: 1})
		}

		top, _ := minHeap.Top()
		if top.ID != 1 {
			t.Errorf("min-heap: expected id 1 on top, got %d", top.ID)
		}
		top, _ = maxHeap.Top()
		if top.ID != 9 {
			t.Errorf("max-heap: expected id 9 on top, got %d", top.ID)
		}
	})

	t.Run("PushBounded", func(t *testing.T) {
		pq := NewPriorityQueue(true)

		for i, d := range []float32{5, 1, 9, 3, 7, 2} {
			pq.PushBounded(Item{ID: uint32(i), Distance: d}, 3)
		}

		if pq.Len() != 3 {
			t.Fatalf("expected len 3, got %d", pq.Len())
		}

		got := pq.DrainAscending(nil)
		want := []float32{1, 2, 3}
		for i := range want {
			if got[i].Distance != want[i] {
				t.Errorf("position %d: expected %v, got %v", i, want[i], got[i].Distance)
			}
		}

		if pq.PushBounded(Item{ID: 1}, 0) {
			t.Error("zero capacity must reject")
		}
	})

	t.Run("PushBoundedEqualDistance", func(t *testing.T) {
		pq := NewPriorityQueue(true)
		pq.PushBounded(Item{ID: 5, Distance: 1}, 1)

		// Same distance, smaller id wins.
		if !pq.PushBounded(Item{ID: 2, Distance: 1}, 1) {
			t.Error("expected smaller id to replace top")
		}
		if pq.PushBounded(Item{ID: 8, Distance: 1}, 1) {
			t.Error("expected larger id to be rejected")
		}

		top, _ := pq.Top()
		if top.ID != 2 {
			t.Errorf("expected id 2, got %d", top.ID)
		}
	})
}

func TestPriorityQueue_RandomizedOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, isMax := range []bool{false, true} {
		pq := NewPriorityQueue(isMax)
		items := make([]Item, 500)
		for i := range items {
			items[i] = Item{ID: uint32(i), Distance: float32(rng.IntN(50))}
			pq.Push(items[i])
		}

		sort.Slice(items, func(i, j int) bool { return Less(items[i], items[j]) })

		got := pq.DrainAscending(nil)
		if len(got) != len(items) {
			t.Fatalf("expected %d items, got %d", len(items), len(got))
		}
		for i := range items {
			if got[i] != items[i] {
				t.Fatalf("isMax=%v position %d: expected %+v, got %+v", isMax, i, items[i], got[i])
			}
		}
	}
}
