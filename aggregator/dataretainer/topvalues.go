// Package dataretainer keeps the top N entries of a ranking without
// materializing the full sorted set. Used for VIP customers and per-store
// leaderboards.
package dataretainer

import (
	"cmp"
	"container/heap"
	"sort"
)

// Entry is one ranked item: an identifying key, the ordering value and an
// optional payload carried along for the report.
type Entry[V cmp.Ordered] struct {
	Key     string
	Value   V
	Payload interface{}
}

type entryHeap[V cmp.Ordered] struct {
	items   []Entry[V]
	largest bool
}

func (h entryHeap[V]) Len() int      { return len(h.items) }
func (h entryHeap[V]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h entryHeap[V]) Less(i, j int) bool {
	if h.items[i].Value != h.items[j].Value {
		if h.largest {
			return h.items[i].Value < h.items[j].Value
		}
		return h.items[i].Value > h.items[j].Value
	}
	// Equal values: evict the lexicographically larger key first so results
	// do not depend on insertion order.
	return h.items[i].Key > h.items[j].Key
}
func (h *entryHeap[V]) Push(x interface{}) { h.items = append(h.items, x.(Entry[V])) }
func (h *entryHeap[V]) Pop() interface{} {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}

// TopN retains the N largest (or smallest) entries seen.
type TopN[V cmp.Ordered] struct {
	h        *entryHeap[V]
	capacity int
}

func NewTopN[V cmp.Ordered](capacity int, largest bool) *TopN[V] {
	if capacity <= 0 {
		capacity = 1
	}
	h := &entryHeap[V]{items: make([]Entry[V], 0, capacity), largest: largest}
	heap.Init(h)
	return &TopN[V]{h: h, capacity: capacity}
}

func (t *TopN[V]) Insert(e Entry[V]) {
	if t.h.Len() < t.capacity {
		heap.Push(t.h, e)
		return
	}
	root := t.h.items[0]
	replace := false
	if e.Value != root.Value {
		if t.h.largest {
			replace = e.Value > root.Value
		} else {
			replace = e.Value < root.Value
		}
	} else {
		replace = e.Key < root.Key
	}
	if replace {
		t.h.items[0] = e
		heap.Fix(t.h, 0)
	}
}

// Values returns the retained entries ordered best-first, ties broken by
// key so output is stable across runs.
func (t *TopN[V]) Values() []Entry[V] {
	out := make([]Entry[V], len(t.h.items))
	copy(out, t.h.items)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			if t.h.largest {
				return out[i].Value > out[j].Value
			}
			return out[i].Value < out[j].Value
		}
		return out[i].Key < out[j].Key
	})
	return out
}
