// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package cache

import "sort"

// TopK keeps the k best items seen so far, where better(a, b) reports
// whether a ranks ahead of b. Internally it is a min-heap on "better", so
// the root is the worst retained item and is replaced in O(log k).
//
// TopK is not safe for concurrent use.
type TopK[T any] struct {
	k      int
	better func(a, b T) bool
	heap   []T
}

// NewTopK creates a TopK retaining at most k items. k <= 0 retains nothing.
func NewTopK[T any](k int, better func(a, b T) bool) *TopK[T] {
	if k < 0 {
		k = 0
	}
	return &TopK[T]{k: k, better: better, heap: make([]T, 0, k)}
}

// Push offers an item. It reports whether the item was retained.
func (t *TopK[T]) Push(item T) bool {
	if t.k == 0 {
		return false
	}
	if len(t.heap) < t.k {
		t.heap = append(t.heap, item)
		t.bubbleUp(len(t.heap) - 1)
		return true
	}
	if !t.better(item, t.heap[0]) {
		return false
	}
	t.heap[0] = item
	t.bubbleDown(0)
	return true
}

func (t *TopK[T]) Len() int { return len(t.heap) }

// Sorted returns the retained items, best first. The TopK is left intact.
func (t *TopK[T]) Sorted() []T {
	out := make([]T, len(t.heap))
	copy(out, t.heap)
	sort.SliceStable(out, func(i, j int) bool { return t.better(out[i], out[j]) })
	return out
}

// worse is the heap order: the root holds the item every other item beats.
func (t *TopK[T]) worse(i, j int) bool {
	return t.better(t.heap[j], t.heap[i])
}

func (t *TopK[T]) bubbleUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !t.worse(i, parent) {
			return
		}
		t.heap[i], t.heap[parent] = t.heap[parent], t.heap[i]
		i = parent
	}
}

func (t *TopK[T]) bubbleDown(i int) {
	n := len(t.heap)
	for {
		smallest := i
		left, right := 2*i+1, 2*i+2
		if left < n && t.worse(left, smallest) {
			smallest = left
		}
		if right < n && t.worse(right, smallest) {
			smallest = right
		}
		if smallest == i {
			return
		}
		t.heap[i], t.heap[smallest] = t.heap[smallest], t.heap[i]
		i = smallest
	}
}
