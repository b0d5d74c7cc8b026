// Package queue implements the bounded, polled FIFO that connects every
// stage of the decode pipeline.
//
// The queue deliberately does not use condition-variable wakeups: pipeline
// stages also need to observe a cancellation flag on every iteration, so
// both producers and consumers poll on a short cooperative sleep instead of
// blocking on the queue alone.
package queue

import (
	"sync"
	"time"
)

// PollInterval is the cooperative sleep a producer or consumer performs
// when the queue is full or empty, respectively.
const PollInterval = 5 * time.Millisecond

// Bounded is a single-producer/single-consumer FIFO of soft-bounded length.
type Bounded[T any] struct {
	mu     sync.Mutex
	items  []T
	max    int
	closed bool
}

// New creates a bounded queue that holds at most max items before
// PushIfRoom starts reporting false.
func New[T any](max int) *Bounded[T] {
	if max <= 0 {
		max = 1
	}
	return &Bounded[T]{max: max}
}

// PushIfRoom appends x if the queue has room, returning false otherwise.
// It never blocks; callers that want to block poll by retrying after
// PollInterval.
func (q *Bounded[T]) PushIfRoom(x T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || len(q.items) >= q.max {
		return false
	}
	q.items = append(q.items, x)
	return true
}

// PopIfAvailable removes and returns the oldest item, or ok=false if the
// queue is currently empty.
func (q *Bounded[T]) PopIfAvailable() (x T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return x, false
	}
	x = q.items[0]
	q.items = q.items[1:]
	return x, true
}

// PushWait blocks, polling at PollInterval, until the item is pushed or the
// queue is closed or ctxDone fires.
func (q *Bounded[T]) PushWait(x T, ctxDone <-chan struct{}) bool {
	for {
		if q.PushIfRoom(x) {
			return true
		}
		if q.IsClosed() {
			return false
		}
		select {
		case <-ctxDone:
			return false
		case <-time.After(PollInterval):
		}
	}
}

// PopWait blocks, polling at PollInterval, until an item is available or the
// queue is closed-and-drained or ctxDone fires.
func (q *Bounded[T]) PopWait(ctxDone <-chan struct{}) (x T, ok bool) {
	for {
		if x, ok = q.PopIfAvailable(); ok {
			return x, true
		}
		if q.IsClosed() {
			return x, false
		}
		select {
		case <-ctxDone:
			return x, false
		case <-time.After(PollInterval):
		}
	}
}

// Len returns the current number of queued items.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close signals that no more producers will push; draining consumers see
// IsClosed once the backlog is empty.
func (q *Bounded[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// IsClosed reports whether Close has been called and the queue has been
// fully drained.
func (q *Bounded[T]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}

// Flush discards all queued items, used on seek.
func (q *Bounded[T]) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// Reopen clears the closed flag, used when a pipeline is restarted after a
// seek.
func (q *Bounded[T]) Reopen() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = false
	q.items = nil
}
