package pointcloud

import "container/heap"

// queueItem is one entry in the max-priority queue, ordered by descending Z
// (spec.md §4.7 "max-priority queue keyed by node Z").
type queueItem struct {
	id    int32
	z     float64
	index int // maintained by heap.Interface so heap.Remove can locate the item
}

type itemHeap []*queueItem

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return h[i].z > h[j].z } // max-heap
func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *itemHeap) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// Queue is the max-priority queue over node ids, keyed by Z, supporting
// O(log n) removal by id (spec.md §4.7 "priority inversion during merge":
// `remove_by_index`). Grounded on katalvlaran-lvlath's own dijkstra package,
// which is itself built on container/heap for its priority queue.
type Queue struct {
	h     itemHeap
	byID  map[int32]*queueItem
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{byID: make(map[int32]*queueItem)}
}

// Push inserts id at the given z height.
func (q *Queue) Push(id int32, z float64) {
	item := &queueItem{id: id, z: z}
	heap.Push(&q.h, item)
	q.byID[id] = item
}

// Pop removes and returns the id with the highest z.
func (q *Queue) Pop() (int32, bool) {
	if q.h.Len() == 0 {
		return 0, false
	}
	item := heap.Pop(&q.h).(*queueItem)
	delete(q.byID, item.id)
	return item.id, true
}

// Remove deletes id from the queue in O(log n), if present (the
// `ptsqueue.remove(nodes.get_queue_idx(closest_node_id))` call in
// BranchingTree.cpp's merge handling).
func (q *Queue) Remove(id int32) bool {
	item, ok := q.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&q.h, item.index)
	delete(q.byID, id)
	return true
}

// Contains reports whether id is currently queued.
func (q *Queue) Contains(id int32) bool {
	_, ok := q.byID[id]
	return ok
}

// Len returns the number of queued ids.
func (q *Queue) Len() int { return q.h.Len() }

// Empty reports whether the queue has no entries.
func (q *Queue) Empty() bool { return q.h.Len() == 0 }
