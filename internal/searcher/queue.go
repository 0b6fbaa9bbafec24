package searcher

import (
	"github.com/hupe1980/ngtgo/model"
)

// PriorityQueueItem represents an item in the priority queue.
type PriorityQueueItem struct {
	Node     model.ObjectID
	Distance float32
}

// closer orders items by distance, breaking ties by the smaller ID.
func closer(a, b PriorityQueueItem) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Node < b.Node
}

// PriorityQueue implements a binary heap holding PriorityQueueItems.
// Value-based storage, it does NOT implement container/heap to avoid
// interface overhead.
//
// A min heap keeps the closest item on top, a max heap the farthest.
// Equal distances are ordered by ID so traversal is deterministic.
type PriorityQueue struct {
	isMaxHeap bool
	items     []PriorityQueueItem
}

// NewPriorityQueue creates a new priority queue.
func NewPriorityQueue(isMaxHeap bool) *PriorityQueue {
	return &PriorityQueue{
		isMaxHeap: isMaxHeap,
		items:     make([]PriorityQueueItem, 0, 16),
	}
}

// Reset clears the priority queue for reuse.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}

// Len returns the number of elements in the heap.
func (pq *PriorityQueue) Len() int {
	return len(pq.items)
}

// TopItem returns the top element of the heap.
func (pq *PriorityQueue) TopItem() (PriorityQueueItem, bool) {
	if len(pq.items) == 0 {
		return PriorityQueueItem{}, false
	}
	return pq.items[0], true
}

// PushItem inserts an item while maintaining the heap invariant.
func (pq *PriorityQueue) PushItem(item PriorityQueueItem) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// PushItemBounded inserts an item into a max heap holding at most
// capacity items. When full, the item replaces the top only if it is
// closer. It reports whether the item was kept.
func (pq *PriorityQueue) PushItemBounded(item PriorityQueueItem, capacity int) bool {
	if len(pq.items) < capacity {
		pq.PushItem(item)
		return true
	}
	if capacity <= 0 {
		return false
	}
	if !closer(item, pq.items[0]) {
		return false
	}
	pq.items[0] = item
	pq.siftDown(0)
	return true
}

// PopItem removes and returns the top element from the heap.
func (pq *PriorityQueue) PopItem() (PriorityQueueItem, bool) {
	n := len(pq.items)
	if n == 0 {
		return PriorityQueueItem{}, false
	}

	item := pq.items[0]
	pq.items[0] = pq.items[n-1]
	pq.items = pq.items[:n-1]

	if len(pq.items) > 0 {
		pq.siftDown(0)
	}

	return item, true
}

// Drain pops every item into dst and returns it. A max heap yields the
// items farthest first.
func (pq *PriorityQueue) Drain(dst []PriorityQueueItem) []PriorityQueueItem {
	for pq.Len() > 0 {
		item, _ := pq.PopItem()
		dst = append(dst, item)
	}
	return dst
}

func (pq *PriorityQueue) less(i, j int) bool {
	if pq.isMaxHeap {
		return closer(pq.items[j], pq.items[i])
	}
	return closer(pq.items[i], pq.items[j])
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !pq.less(i, parent) {
			break
		}
		pq.items[i], pq.items[parent] = pq.items[parent], pq.items[i]
		i = parent
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		right := left + 1
		if right < n && pq.less(right, left) {
			child = right
		}
		if !pq.less(child, i) {
			break
		}
		pq.items[i], pq.items[child] = pq.items[child], pq.items[i]
		i = child
	}
}
