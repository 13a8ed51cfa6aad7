package queue

import (
	"container/heap"

	"github.com/nathoo/battlecore/types"
)

// Scheduled is a delayed item waiting on the timeline.
type Scheduled struct {
	At     float64
	Item   Item
	Anchor types.UnitID // non-zero: drop the item if this unit is gone
	seq    uint64
}

// Timeline orders delayed items by deadline, then by scheduling order.
// Items sharing a partition run back to back: each one's delay starts when
// the previous one in the same partition goes off.
type Timeline struct {
	now     float64
	seq     uint64
	pending scheduledHeap
	cursors map[string]float64
}

// NewTimeline returns an empty timeline at time zero.
func NewTimeline() *Timeline {
	return &Timeline{cursors: make(map[string]float64)}
}

// Now returns the current timeline time.
func (t *Timeline) Now() float64 { return t.now }

// Len returns the number of items still waiting.
func (t *Timeline) Len() int { return len(t.pending) }

// Schedule queues it to go off delay seconds from now (or from the end of
// its partition) and returns the deadline.
func (t *Timeline) Schedule(delay float64, it Item, anchor types.UnitID) float64 {
	if delay < 0 {
		delay = 0
	}
	start := t.now
	part := it.Context.Queue
	if part != "" {
		if c, ok := t.cursors[part]; ok && c > start {
			start = c
		}
	}
	at := start + delay
	if part != "" {
		t.cursors[part] = at
	}
	t.seq++
	heap.Push(&t.pending, &Scheduled{At: at, Item: it, Anchor: anchor, seq: t.seq})
	return at
}

// Advance moves time forward by dt and returns every item now due, in order.
func (t *Timeline) Advance(dt float64) []Scheduled {
	if dt > 0 {
		t.now += dt
	}
	var due []Scheduled
	for len(t.pending) > 0 && t.pending[0].At <= t.now {
		s := heap.Pop(&t.pending).(*Scheduled)
		due = append(due, *s)
	}
	for part, c := range t.cursors {
		if c <= t.now {
			delete(t.cursors, part)
		}
	}
	return due
}

type scheduledHeap []*Scheduled

func (h scheduledHeap) Len() int { return len(h) }

func (h scheduledHeap) Less(i, j int) bool {
	if h[i].At != h[j].At {
		return h[i].At < h[j].At
	}
	return h[i].seq < h[j].seq
}

func (h scheduledHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scheduledHeap) Push(x any) { *h = append(*h, x.(*Scheduled)) }

func (h *scheduledHeap) Pop() any {
	old := *h
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return s
}
