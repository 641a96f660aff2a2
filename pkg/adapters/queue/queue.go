// Package queue provides in-process FIFO queues and the handlers that let
// containers consume from and produce to them. Queues live in a Broker shared
// by every container of a process.
package queue

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrClosed is returned when pushing to a closed queue.
var ErrClosed = errors.New("queue closed")

// Queue is an unbounded FIFO. Safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	items  []any
	closed bool
	ready  chan struct{} // holds a token while items may be waiting
	done   chan struct{} // closed by Close
}

// New creates an empty open queue.
func New() *Queue {
	return &Queue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Push appends v.
func (q *Queue) Push(v any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, v)
	q.signal()
	return nil
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest item, waiting for one if the queue is empty.
// ok is false when the queue is closed and drained. The error is ctx.Err() when
// ctx ends first.
func (q *Queue) Pop(ctx context.Context) (v any, ok bool, err error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v = q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			if len(q.items) > 0 {
				q.signal()
			}
			q.mu.Unlock()
			return v, true, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, false, nil
		}

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-q.ready:
		case <-q.done:
		}
	}
}

// TryPop is the non-blocking form of Pop.
func (q *Queue) TryPop() (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	v := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return v, true
}

// Close stops accepting items. Items already queued can still be popped.
// Closing twice is a no-op.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Closed reports whether Close was called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of waiting items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain removes and returns every waiting item.
func (q *Queue) Drain() []any {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Broker holds named queues, created on first use.
// Safe for concurrent use.
type Broker struct {
	queues map[string]*Queue
	mu     sync.RWMutex
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{queues: make(map[string]*Queue)}
}

// Queue returns the named queue, creating it if needed.
func (b *Broker) Queue(name string) *Queue {
	b.mu.RLock()
	q, ok := b.queues[name]
	b.mu.RUnlock()
	if ok {
		return q
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[name]; ok {
		return q
	}
	q = New()
	b.queues[name] = q
	return q
}

// Names returns the names of the existing queues, sorted.
func (b *Broker) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.queues))
	for name := range b.queues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
