package searcher

import "testing"

func TestVisitedSet_Basic(t *testing.T) {
	v := NewVisitedSet(64)

	ids := []uint32{0, 1, 63, 64, 100, 1000}

	for _, id := range ids {
		if v.Visited(id) {
			t.Errorf("ID %d should not be visited yet", id)
		}
	}

	for _, id := range ids {
		if !v.Visit(id) {
			t.Errorf("ID %d should be newly visited", id)
		}
	}

	for _, id := range ids {
		if !v.Visited(id) {
			t.Errorf("ID %d should be visited", id)
		}
	}

	if v.Visited(2) {
		t.Error("ID 2 should not be visited")
	}

	if v.Visit(63) {
		t.Error("second visit must report false")
	}
	if v.Count() != len(ids) {
		t.Errorf("expected count %d, got %d", len(ids), v.Count())
	}

	v.Reset()
	for _, id := range ids {
		if v.Visited(id) {
			t.Errorf("ID %d should be cleared after reset", id)
		}
	}
	if v.Count() != 0 {
		t.Errorf("expected count 0 after reset, got %d", v.Count())
	}
}

func TestVisitedSet_EnsureCapacity(t *testing.T) {
	v := NewVisitedSet(0)
	v.EnsureCapacity(200)
	if len(v.bits) < 4 {
		t.Errorf("expected at least 4 words, got %d", len(v.bits))
	}

	v.Visit(199)
	v.EnsureCapacity(10)
	if !v.Visited(199) {
		t.Error("shrinking request must keep state")
	}
}
