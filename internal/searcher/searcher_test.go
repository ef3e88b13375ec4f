package searcher

import "testing"

func TestContext_Lifecycle(t *testing.T) {
	c := Get()

	c.Visited.Visit(1)
	c.Candidates.Push(Item{ID: 100, Distance: 1})
	c.Results.Push(Item{ID: 200, Distance: 2})
	c.Neighbors = append(c.Neighbors, 1, 2, 3)
	c.Scratch = append(c.Scratch, Item{ID: 1})
	c.DistanceComputations = 50

	c.ResetLayer()
	if c.Visited.Visited(1) {
		t.Error("Visited not cleared")
	}
	if c.Candidates.Len() != 0 || c.Results.Len() != 0 {
		t.Error("heaps not cleared")
	}
	if len(c.Neighbors) != 0 || len(c.Scratch) != 0 {
		t.Error("scratch not cleared")
	}
	if c.DistanceComputations != 50 {
		t.Error("ResetLayer must keep the distance counter")
	}

	Put(c)

	c2 := Get()
	if c2.DistanceComputations != 0 {
		t.Error("Get must return a reset context")
	}
	Put(c2)
}

func TestNew(t *testing.T) {
	c := New(10, 20)
	if c.Visited == nil || c.Candidates == nil || c.Results == nil {
		t.Fatal("components not initialized")
	}
	if cap(c.Scratch) != 20 {
		t.Errorf("Scratch cap mismatch: got %d, want 20", cap(c.Scratch))
	}
}
