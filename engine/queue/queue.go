// Package queue holds the interpreter's pending work: the immediate
// double-ended queue and the time-ordered timeline of delayed effects.
package queue

import (
	"github.com/nathoo/battlecore/engine/scope"
	"github.com/nathoo/battlecore/types"
)

// Item is one unit of pending work. It is executed at most once.
type Item struct {
	Effect  types.Effect
	Context scope.Context
}

// Queue is a ring-buffer deque of items.
type Queue struct {
	buf  []Item
	head int
	n    int
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{buf: make([]Item, 16)}
}

// Len returns the number of pending items.
func (q *Queue) Len() int { return q.n }

// PushBack appends an item to the tail.
func (q *Queue) PushBack(it Item) {
	q.grow(1)
	q.buf[(q.head+q.n)%len(q.buf)] = it
	q.n++
}

// PushFront places an item at the head. It runs before everything queued.
func (q *Queue) PushFront(it Item) {
	q.grow(1)
	q.head = (q.head - 1 + len(q.buf)) % len(q.buf)
	q.buf[q.head] = it
	q.n++
}

// PushFrontMany places items at the head keeping their given order:
// items[0] runs first.
func (q *Queue) PushFrontMany(items []Item) {
	q.grow(len(items))
	for i := len(items) - 1; i >= 0; i-- {
		q.head = (q.head - 1 + len(q.buf)) % len(q.buf)
		q.buf[q.head] = items[i]
		q.n++
	}
}

// Pop removes and returns the head item.
func (q *Queue) Pop() (Item, bool) {
	if q.n == 0 {
		return Item{}, false
	}
	it := q.buf[q.head]
	q.buf[q.head] = Item{}
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return it, true
}

// Clear drops every pending item.
func (q *Queue) Clear() {
	for q.n > 0 {
		q.Pop()
	}
	q.head = 0
}

func (q *Queue) grow(extra int) {
	if q.n+extra <= len(q.buf) {
		return
	}
	size := len(q.buf) * 2
	if size == 0 {
		size = 16
	}
	for size < q.n+extra {
		size *= 2
	}
	buf := make([]Item, size)
	for i := 0; i < q.n; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
