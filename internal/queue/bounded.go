// Package queue provides a fixed-capacity blocking hand-off buffer shared by
// one or more producers and one or more consumers.
//
// Push blocks while the queue is full, Pop blocks while it is empty and still
// open. Close is a one-shot signal meaning no more items will ever be pushed:
// consumers drain whatever is left and then observe empty-and-closed.
package queue

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrPushAfterClose is the panic value raised when Push is called on a closed queue.
// The shutdown protocol guarantees this never happens, so it indicates a bug in the caller.
var ErrPushAfterClose = errors.New("queue: push after close")

// Order selects which buffered item Pop returns.
// Consumers of the counting pipeline cannot observe the difference.
type Order int

const (
	// LIFO pops the most recently pushed item (stack).
	LIFO Order = iota
	// FIFO pops the oldest item.
	FIFO
)

// String returns the config spelling of the order.
func (o Order) String() string {
	switch o {
	case LIFO:
		return "lifo"
	case FIFO:
		return "fifo"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder converts "lifo" or "fifo" (case-insensitive) to an Order.
// An empty string selects LIFO.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lifo":
		return LIFO, nil
	case "fifo":
		return FIFO, nil
	default:
		return LIFO, fmt.Errorf("unknown queue order %q, must be lifo or fifo", s)
	}
}

// Stats reports lifetime traffic through a queue.
type Stats struct {
	Pushed uint64
	Popped uint64
}

// Bounded is a fixed-capacity concurrent queue with blocking Push and Pop.
// The zero value is not usable; create one with New or NewWithOrder.
type Bounded[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond // poppers wait here
	notFull  *sync.Cond // pushers wait here

	// items is a ring: occupied slots are head..head+size-1 (mod cap).
	items  []T
	head   int
	size   int
	order  Order
	closed bool
	stats  Stats
}

// New creates a LIFO queue holding at most capacity items.
// A capacity below 1 is raised to 1.
func New[T any](capacity int) *Bounded[T] {
	return NewWithOrder[T](capacity, LIFO)
}

// NewWithOrder creates a queue with the given capacity and pop order.
func NewWithOrder[T any](capacity int, order Order) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}
	q := &Bounded[T]{
		items: make([]T, capacity),
		order: order,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push inserts item, blocking while the queue is full.
// It panics with ErrPushAfterClose if the queue is, or becomes, closed.
func (q *Bounded[T]) Push(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == len(q.items) && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		panic(ErrPushAfterClose)
	}

	q.items[(q.head+q.size)%len(q.items)] = item
	q.size++
	q.stats.Pushed++

	// Signal on every push. Signalling only on the empty to non-empty
	// transition can strand a buffered item while a second popper sleeps.
	q.notEmpty.Signal()
}

// Pop removes and returns an item, blocking while the queue is empty and open.
// ok is false when the queue is empty and closed; no further items will arrive.
func (q *Bounded[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.size == 0 {
		return item, false
	}

	var zero T
	var idx int
	if q.order == FIFO {
		idx = q.head
		q.head = (q.head + 1) % len(q.items)
	} else {
		idx = (q.head + q.size - 1) % len(q.items)
	}
	item = q.items[idx]
	q.items[idx] = zero // release references held by the slot
	q.size--
	q.stats.Popped++

	q.notFull.Signal()
	return item, true
}

// Close marks the queue closed and wakes every blocked caller.
// Items already buffered can still be popped. Close is idempotent.
func (q *Bounded[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Len returns the number of buffered items.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the fixed capacity.
func (q *Bounded[T]) Cap() int {
	return len(q.items)
}

// Closed reports whether Close has been called.
func (q *Bounded[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Drained reports whether the queue is closed and empty.
func (q *Bounded[T]) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && q.size == 0
}

// Order returns the pop order the queue was created with.
func (q *Bounded[T]) Order() Order {
	return q.order
}

// Stats returns a snapshot of push and pop counts.
func (q *Bounded[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}
