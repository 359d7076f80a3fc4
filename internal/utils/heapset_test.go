package utils

import (
	"math/rand"
	"sort"
	"testing"
)

func intLess(a, b int) bool { return a < b }

func TestHeapSetEmptyOperations(t *testing.T) {
	hs := NewHeapSet(intLess)

	if _, ok := hs.Peek(); ok {
		t.Error("Peek on empty set should return false")
	}
	if _, ok := hs.Pop(); ok {
		t.Error("Pop on empty set should return false")
	}
	if hs.Remove(3) {
		t.Error("Remove on empty set should return false")
	}
	if hs.Len() != 0 {
		t.Errorf("Expected empty set, got %d elements", hs.Len())
	}
}

func TestHeapSetOrdering(t *testing.T) {
	hs := NewHeapSet(intLess)
	for _, v := range []int{5, 1, 4, 2, 3} {
		hs.Push(v)
	}

	if top, ok := hs.Peek(); !ok || top != 1 {
		t.Errorf("Expected Peek to return 1, got %d (%v)", top, ok)
	}

	for expected := 1; expected <= 5; expected++ {
		v, ok := hs.Pop()
		if !ok || v != expected {
			t.Errorf("Expected %d, got %d (%v)", expected, v, ok)
		}
	}
}

func TestHeapSetDuplicatePush(t *testing.T) {
	hs := NewHeapSet(intLess)
	hs.Push(7)
	hs.Push(7)

	if hs.Len() != 1 {
		t.Errorf("Expected a single element, got %d", hs.Len())
	}
}

func TestHeapSetRemove(t *testing.T) {
	hs := NewHeapSet(intLess)
	for _, v := range []int{10, 20, 30, 40} {
		hs.Push(v)
	}

	if !hs.Remove(10) {
		t.Fatal("Expected 10 to be removed")
	}
	if hs.Contains(10) {
		t.Error("Removed element still present")
	}
	if top, _ := hs.Peek(); top != 20 {
		t.Errorf("Expected new head 20, got %d", top)
	}
	if !hs.Remove(30) {
		t.Fatal("Expected 30 to be removed")
	}

	items := hs.Items()
	if len(items) != 2 || items[0] != 20 || items[1] != 40 {
		t.Errorf("Unexpected items after removals: %v", items)
	}
}

func TestHeapSetRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	hs := NewHeapSet(intLess)
	present := map[int]bool{}

	for i := 0; i < 2000; i++ {
		v := rng.Intn(300)
		if rng.Intn(3) == 0 {
			if hs.Remove(v) != present[v] {
				t.Fatalf("Remove(%d) disagrees with model", v)
			}
			delete(present, v)
		} else {
			hs.Push(v)
			present[v] = true
		}

		var expected []int
		for k := range present {
			expected = append(expected, k)
		}
		sort.Ints(expected)

		if hs.Len() != len(expected) {
			t.Fatalf("Expected %d elements, got %d", len(expected), hs.Len())
		}
		if len(expected) > 0 {
			if top, _ := hs.Peek(); top != expected[0] {
				t.Fatalf("Expected head %d, got %d", expected[0], top)
			}
		}
	}

	items := hs.Items()
	if !sort.IntsAreSorted(items) {
		t.Errorf("Items not sorted: %v", items)
	}
}

type stamped struct {
	at, by int
}

func TestHeapSetItemsTieBreak(t *testing.T) {
	hs := NewHeapSet(func(a, b stamped) bool {
		if a.at != b.at {
			return a.at < b.at
		}
		return a.by < b.by
	})
	for _, v := range []stamped{{5, 2}, {3, 9}, {5, 0}, {7, 1}, {5, 1}} {
		hs.Push(v)
	}
	hs.Pop()

	want := []stamped{{5, 0}, {5, 1}, {5, 2}, {7, 1}}
	items := hs.Items()
	if len(items) != len(want) {
		t.Fatalf("Expected %d items, got %v", len(want), items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("Item %d: expected %v, got %v", i, want[i], items[i])
		}
	}
	if hs.Len() != len(want) {
		t.Errorf("Items should not consume the set, len %d", hs.Len())
	}
}
