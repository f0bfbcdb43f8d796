// Package dispatch implements the priority-ordered, preemptible queue that
// feeds the single speech channel, plus the response cache that
// short-circuits text generation for repeat situations.
package dispatch

import (
	"container/heap"
	"time"

	"github.com/castmate/castmate/internal/domain"
)

// Item is one queued event. The sequence number breaks priority ties so
// equal-priority items dispatch in enqueue order.
type Item struct {
	Event      domain.Event
	Priority   domain.Priority
	EnqueuedAt time.Time
	seq        uint64
}

// itemHeap is a max-heap ordered by (priority desc, sequence asc). Not
// safe for concurrent use; the dispatcher's lock guards it.
type itemHeap []*Item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(*Item)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// queue is the bounded priority queue. On overflow the lowest-priority,
// oldest item is evicted for an incoming item of equal or higher priority;
// an incoming item below everything queued is rejected instead.
type queue struct {
	items itemHeap
	cap   int
}

func newQueue(capacity int) *queue {
	return &queue{cap: capacity}
}

func (q *queue) len() int { return len(q.items) }

func (q *queue) peek() *Item {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

func (q *queue) pop() *Item {
	if len(q.items) == 0 {
		return nil
	}
	return heap.Pop(&q.items).(*Item)
}

// push inserts an item, evicting if necessary. It returns the evicted item
// (nil when nothing was displaced) and whether the incoming item made it in.
func (q *queue) push(item *Item) (evicted *Item, ok bool) {
	if len(q.items) < q.cap {
		heap.Push(&q.items, item)
		return nil, true
	}

	victim := q.victimIndex()
	if item.Priority < q.items[victim].Priority {
		return nil, false
	}
	evicted = heap.Remove(&q.items, victim).(*Item)
	heap.Push(&q.items, item)
	return evicted, true
}

// victimIndex returns the index of the lowest-priority item, oldest first
// among equals.
func (q *queue) victimIndex() int {
	victim := 0
	for i := 1; i < len(q.items); i++ {
		v, c := q.items[victim], q.items[i]
		if c.Priority < v.Priority || (c.Priority == v.Priority && c.seq < v.seq) {
			victim = i
		}
	}
	return victim
}
