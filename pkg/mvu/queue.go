package mvu

import "sync"

// Queue is the FIFO of pending messages for one invocation. Push may be
// called from goroutines started by a command.
type Queue[Msg any] struct {
	mu    sync.Mutex
	items []Msg
	head  int
}

// NewQueue returns a queue holding msgs in order.
func NewQueue[Msg any](msgs ...Msg) *Queue[Msg] {
	q := &Queue[Msg]{}
	q.items = append(q.items, msgs...)
	return q
}

// Push appends msg after everything already queued.
func (q *Queue[Msg]) Push(msg Msg) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
}

// Pop removes and returns the oldest message.
func (q *Queue[Msg]) Pop() (Msg, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero Msg
	if q.head == len(q.items) {
		return zero, false
	}
	msg := q.items[q.head]
	q.items[q.head] = zero
	q.head++
	// reclaim the consumed prefix once it dominates the backing array
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 32 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return msg, true
}

// Len returns the number of pending messages.
func (q *Queue[Msg]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
