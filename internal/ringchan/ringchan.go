// Package ringchan provides a bounded, overwrite-oldest channel used for
// event fan-out where a slow consumer must never stall the BLE callback
// goroutine.
package ringchan

import (
	"sync"
	"sync/atomic"
)

// Ring is a bounded channel that discards its oldest element when full.
//
// Producers never block. Consumers range over C until Close.
type Ring[T any] struct {
	mu     sync.Mutex
	ch     chan T
	closed bool

	sent    atomic.Int64
	dropped atomic.Int64
}

// New creates a Ring with the given capacity. Capacity below one is raised to one.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{ch: make(chan T, capacity)}
}

// C returns the receive side.
func (r *Ring[T]) C() <-chan T {
	return r.ch
}

// Send enqueues v, evicting the oldest element if the buffer is full.
// It reports false when v was not enqueued because the ring is closed.
func (r *Ring[T]) Send(v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	for {
		select {
		case r.ch <- v:
			r.sent.Add(1)
			return true
		default:
		}
		select {
		case <-r.ch:
			r.dropped.Add(1)
		default:
		}
	}
}

// Close closes the receive side. Buffered elements stay readable.
func (r *Ring[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.ch)
}

// Len returns the number of buffered elements.
func (r *Ring[T]) Len() int { return len(r.ch) }

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return cap(r.ch) }

// Stats is a snapshot of the ring counters.
type Stats struct {
	Sent    int64
	Dropped int64
}

// Stats returns the number of accepted and evicted elements.
func (r *Ring[T]) Stats() Stats {
	return Stats{Sent: r.sent.Load(), Dropped: r.dropped.Load()}
}
