// Package queue implements the bounded FIFO that sits between producers and
// the dispatcher.
//
// Submit blocks while the queue is full and Take blocks while it is empty.
// Any number of goroutines may submit; exactly one goroutine (the
// dispatcher loop) takes. Events are never dropped by the queue itself.
package queue

import (
	"context"
	"sync"
)

type Queue struct {
	ch        chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a queue holding at most capacity events. Non-positive values
// select DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		ch:   make(chan Event, capacity),
		done: make(chan struct{}),
	}
}

// Submit appends ev to the tail, blocking while the queue is full. It
// returns ctx.Err() if ctx ends first and ErrClosed once the queue is closed.
func (q *Queue) Submit(ctx context.Context, ev Event) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrClosed
	}
}

// TrySubmit appends ev only if there is room, reporting whether it did.
func (q *Queue) TrySubmit(ev Event) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.ch <- ev:
		return true
	default:
		return false
	}
}

// Take removes and returns the head, blocking while the queue is empty.
// After Close it keeps returning buffered events until the queue drains,
// then reports ErrClosed.
func (q *Queue) Take(ctx context.Context) (Event, error) {
	select {
	case ev := <-q.ch:
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case <-q.done:
		select {
		case ev := <-q.ch:
			return ev, nil
		default:
			return Event{}, ErrClosed
		}
	}
}

// Len returns the number of buffered events.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the configured capacity.
func (q *Queue) Cap() int { return cap(q.ch) }

// Close stops accepting new events and wakes blocked producers. It is safe
// to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
