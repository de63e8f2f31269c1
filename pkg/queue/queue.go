// Package queue provides a fixed-capacity blocking FIFO with an end-of-stream sentinel.
//
// Push blocks while the queue is full and Pop blocks while it is empty. Every
// wait is a predicate loop under the queue's mutex, so there is no gap between
// checking the size and sleeping on it. End of stream travels through the
// queue itself (PushDone), behind every value pushed before it.
package queue

import "sync"

type slot[T any] struct {
	value T
	done  bool
}

// Queue is a bounded FIFO safe for any number of producers and consumers.
type Queue[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	buf  []slot[T]
	head int
	size int

	highWater   int
	pushWaiters int
}

// New creates a queue holding at most capacity items.
// It panics if capacity is not positive.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		panic("queue: capacity must be positive")
	}
	q := &Queue[T]{buf: make([]slot[T], capacity)}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Push appends v, blocking while the queue is full.
func (q *Queue[T]) Push(v T) {
	q.put(slot[T]{value: v})
}

// PushDone appends the end-of-stream sentinel, blocking while the queue is full.
func (q *Queue[T]) PushDone() {
	q.put(slot[T]{done: true})
}

func (q *Queue[T]) put(s slot[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == len(q.buf) {
		q.pushWaiters++
		q.notFull.Wait()
		q.pushWaiters--
	}

	q.buf[(q.head+q.size)%len(q.buf)] = s
	q.size++
	if q.size > q.highWater {
		q.highWater = q.size
	}

	// Broadcast rather than Signal: a woken waiter re-checks its own predicate.
	q.notEmpty.Broadcast()
}

// Pop removes the oldest item, blocking while the queue is empty.
// done is true when the item is the end-of-stream sentinel; value is then the zero value.
func (q *Queue[T]) Pop() (value T, done bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 {
		q.notEmpty.Wait()
	}

	s := q.buf[q.head]
	q.buf[q.head] = slot[T]{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--

	q.notFull.Broadcast()
	return s.value, s.done
}

// Len returns the number of queued items, sentinel included.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}

// HighWater returns the largest length the queue has reached.
func (q *Queue[T]) HighWater() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.highWater
}

// PushWaiters returns how many producers are currently blocked on a full queue.
func (q *Queue[T]) PushWaiters() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushWaiters
}
