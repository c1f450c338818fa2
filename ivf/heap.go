package ivf

import (
	"container/heap"
	"math"
)

// heapItem is one entry in the bounded max-heap backing TopKHeap.
type heapItem struct {
	id       int64
	distance float32
	index    int
}

// maxHeap implements container/heap.Interface, ordering by descending
// distance so the root is always the current k-th nearest candidate.
// Adapted from queue.PriorityQueue (teacher), specialized to a fixed
// "descending" order and a bounded capacity.
type maxHeap []*heapItem

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].distance > h[j].distance }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *maxHeap) Push(x any)         { item := x.(*heapItem); item.index = len(*h); *h = append(*h, item) }
func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// TopKHeap is a bounded top-k max-heap: it retains the k smallest
// distances offered to it. It implements ivf.Heap.
type TopKHeap struct {
	k    int
	data maxHeap
}

var _ Heap = (*TopKHeap)(nil)

// NewTopKHeap creates an empty TopKHeap retaining up to k candidates.
func NewTopKHeap(k int) *TopKHeap {
	return &TopKHeap{k: k, data: make(maxHeap, 0, k)}
}

// Offer proposes a candidate. If fewer than k candidates are held, it is
// admitted unconditionally; otherwise it replaces the current worst
// (largest-distance) candidate only if it is strictly closer.
func (h *TopKHeap) Offer(id int64, distance float32) {
	if h.k <= 0 {
		return
	}
	if len(h.data) < h.k {
		heap.Push(&h.data, &heapItem{id: id, distance: distance})
		return
	}
	if len(h.data) > 0 && distance < h.data[0].distance {
		h.data[0].id = id
		h.data[0].distance = distance
		heap.Fix(&h.data, 0)
	}
}

// TopDistance returns the current k-th nearest distance, or +Inf while
// fewer than k candidates are held.
func (h *TopKHeap) TopDistance() float32 {
	if len(h.data) == 0 || len(h.data) < h.k {
		return float32(math.Inf(1))
	}
	return h.data[0].distance
}

// SnapshotIDs returns a copy of the currently admitted IDs, unordered.
func (h *TopKHeap) SnapshotIDs() []int64 {
	ids := make([]int64, len(h.data))
	for i, it := range h.data {
		ids[i] = it.id
	}
	return ids
}

// Sorted returns (distance, id) pairs in ascending distance order. The
// heap itself is left intact: Sorted operates on a copy.
func (h *TopKHeap) Sorted() []ScoredID {
	cp := make(maxHeap, len(h.data))
	for i, it := range h.data {
		cp[i] = &heapItem{id: it.id, distance: it.distance}
	}
	out := make([]ScoredID, len(cp))
	heap.Init(&cp)
	// Repeatedly pop the max to fill from the back, yielding ascending order.
	for i := len(cp) - 1; i >= 0; i-- {
		top := heap.Pop(&cp).(*heapItem)
		out[i] = ScoredID{Distance: top.distance, ID: top.id}
	}
	return out
}

// Clone returns an independent copy of the heap's current state, used by
// callers that need to snapshot-and-possibly-roll-back (AdaptiveSearch).
func (h *TopKHeap) Clone() Heap {
	cp := &TopKHeap{k: h.k, data: make(maxHeap, len(h.data))}
	for i, it := range h.data {
		cp.data[i] = &heapItem{id: it.id, distance: it.distance, index: i}
	}
	return cp
}

// Len reports how many candidates are currently held (≤ k).
func (h *TopKHeap) Len() int { return len(h.data) }
