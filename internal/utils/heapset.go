package utils

import (
	"container/heap"
	"slices"
)

// HeapSet is a set of comparable elements kept in a binary heap, so that the
// smallest element under the given order can be read in O(1) and any element
// can be added or removed in O(log n).
type HeapSet[T comparable] struct {
	heap  byOrder[T]
	index map[T]*entry[T]
}

type entry[T comparable] struct {
	value T
	i     int
}

// NewHeapSet creates an empty set ordered by less, which must be a strict
// total order over T.
func NewHeapSet[T comparable](less func(a, b T) bool) *HeapSet[T] {
	return &HeapSet[T]{
		heap:  byOrder[T]{less: less},
		index: make(map[T]*entry[T]),
	}
}

// Len returns the number of elements.
func (hs *HeapSet[T]) Len() int {
	return len(hs.index)
}

// Peek returns the smallest element.
func (hs *HeapSet[T]) Peek() (T, bool) {
	if len(hs.index) == 0 {
		var zero T
		return zero, false
	}
	return hs.heap.entries[0].value, true
}

// Push adds v. Adding an element already present is a no-op.
func (hs *HeapSet[T]) Push(v T) {
	if _, ok := hs.index[v]; ok {
		return
	}
	e := &entry[T]{value: v}
	heap.Push(&hs.heap, e)
	hs.index[v] = e
}

// Pop removes and returns the smallest element.
func (hs *HeapSet[T]) Pop() (T, bool) {
	if len(hs.index) == 0 {
		var zero T
		return zero, false
	}
	e := heap.Pop(&hs.heap).(*entry[T])
	delete(hs.index, e.value)
	return e.value, true
}

// Contains reports whether v is in the set.
func (hs *HeapSet[T]) Contains(v T) bool {
	_, ok := hs.index[v]
	return ok
}

// Remove deletes v and reports whether it was present.
func (hs *HeapSet[T]) Remove(v T) bool {
	e, ok := hs.index[v]
	if !ok {
		return false
	}
	heap.Remove(&hs.heap, e.i)
	delete(hs.index, v)
	return true
}

// Items returns all elements, smallest first.
func (hs *HeapSet[T]) Items() []T {
	items := make([]T, 0, len(hs.heap.entries))
	for _, e := range hs.heap.entries {
		items = append(items, e.value)
	}
	less := hs.heap.less
	slices.SortFunc(items, func(a, b T) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		}
		return 0
	})
	return items
}

// byOrder implements heap.Interface over the set's entries.
type byOrder[T comparable] struct {
	entries []*entry[T]
	less    func(a, b T) bool
}

func (h byOrder[T]) Len() int {
	return len(h.entries)
}

func (h byOrder[T]) Less(i, j int) bool {
	return h.less(h.entries[i].value, h.entries[j].value)
}

func (h byOrder[T]) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].i = i
	h.entries[j].i = j
}

func (h *byOrder[T]) Push(x any) {
	e := x.(*entry[T])
	e.i = len(h.entries)
	h.entries = append(h.entries, e)
}

func (h *byOrder[T]) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	h.entries = old[:n-1]
	return e
}
