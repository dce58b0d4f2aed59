// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     queue
// Description: Unbounded FIFO hand-off queue with blocking pop
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package queue

import (
	"context"
	"sync"
)

// Queue is a goroutine-safe FIFO queue. Push never blocks; Pop blocks until
// an item is available, the queue is closed or the context is done.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	notify chan struct{}
	done   chan struct{}
	closed bool
}

// New creates and returns a new Queue instance.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push appends an item and wakes a waiting consumer. Items pushed after
// Close are discarded; the return value reports whether the item was queued.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	q.signal()
	return true
}

// Pop removes and returns the front item. The boolean is false when no item
// will be delivered: the context ended, or the queue is closed and drained.
func (q *Queue[T]) Pop(ctx context.Context) (T, bool) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()

			if more {
				q.signal()
			}
			return item, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return zero, false
		}

		select {
		case <-q.notify:
		case <-q.done:
		case <-ctx.Done():
			return zero, false
		}
	}
}

// TryPop returns the front item without blocking
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of queued items
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting items and wakes all waiting consumers. Items
// already queued are still delivered by Pop.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Clear drops all queued items and returns how many were dropped
func (q *Queue[T]) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = nil
	return n
}

func (q *Queue[T]) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
