// Package cmdqueue implements the bounded, thread-safe command FIFO
// that couples command producers (the messaging adapter, the local
// operator interface, the fault monitor) to the command-logic task.
// Producers never block: when full, the oldest entry is dropped and the
// drop is reported through the OnOverflow hook so callers can surface
// it on VehicleState.LastEvent. The consumer blocks with a timeout so
// shutdown is observed within one task period.
package cmdqueue

import (
	"sync"
	"time"

	"github.com/leodavilats/truckctl/internal/state"
)

// Queue is a bounded FIFO of state.Command.
type Queue struct {
	mu         sync.Mutex
	items      []state.Command
	capacity   int
	notEmpty   chan struct{}
	onOverflow func(dropped state.Command)
}

// New creates a queue with the given capacity (default 32 if <= 0).
func New(capacity int, onOverflow func(dropped state.Command)) *Queue {
	if capacity <= 0 {
		capacity = 32
	}
	return &Queue{
		capacity:   capacity,
		notEmpty:   make(chan struct{}, 1),
		onOverflow: onOverflow,
	}
}

// Push enqueues a command, never blocking. If the queue is full the
// oldest entry is dropped first.
func (q *Queue) Push(cmd state.Command) {
	q.mu.Lock()
	if len(q.items) >= q.capacity {
		dropped := q.items[0]
		q.items = q.items[1:]
		if q.onOverflow != nil {
			q.onOverflow(dropped)
		}
	}
	q.items = append(q.items, cmd)
	q.mu.Unlock()

	select {
	case q.notEmpty <- struct{}{}:
	default:
	}
}

// DrainAll removes and returns every currently queued command,
// non-blocking. Used by the command-logic task each tick.
func (q *Queue) DrainAll() []state.Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Wait blocks until an item is available or timeout elapses. Returns
// true if an item is believed available (callers should still
// DrainAll/check length, since multiple waiters may race).
func (q *Queue) Wait(timeout time.Duration) bool {
	select {
	case <-q.notEmpty:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Len reports the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
