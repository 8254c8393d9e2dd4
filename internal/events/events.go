// Package events implements the named-condition notification hub used to
// wake the command-logic and navigation tasks on fault onset and mode
// changes, without those tasks polling the shared state store.
package events

import (
	"sync"
	"time"
)

// Name is a fixed, enumerated event key rather than a free-form
// string.
type Name int

const (
	FaultDetected Name = iota
	ModeChanged
	Shutdown
)

// Manager is a registry of named condition variables. signal/broadcast
// bump a per-name generation counter; wait blocks until the generation
// advances or the timeout elapses. All waits loop on the predicate, so
// spurious wakeups are harmless.
type Manager struct {
	mu         sync.Mutex
	cond       *sync.Cond
	generation map[Name]uint64
}

// New creates an empty event manager.
func New() *Manager {
	m := &Manager{generation: make(map[Name]uint64)}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Signal wakes the waiters on name, if any are currently waiting. The
// condition variable is shared by all names, so every waiter is woken;
// those waiting on another name see no change and go back to waiting.
func (m *Manager) Signal(name Name) {
	m.mu.Lock()
	m.generation[name]++
	m.mu.Unlock()
	m.cond.Broadcast()
}

// Broadcast wakes every waiter on every name; used for shutdown.
func (m *Manager) Broadcast(name Name) {
	m.mu.Lock()
	m.generation[name]++
	m.mu.Unlock()
	m.cond.Broadcast()
}

// Generation returns the current signal count for name. Callers that
// need edge-triggered, non-blocking detection (e.g. the navigation
// task checking for a mode change once per tick) keep their own copy
// of the last-seen generation and compare.
func (m *Manager) Generation(name Name) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation[name]
}

// Wait blocks until name is signaled/broadcast or timeout elapses.
// Returns true if the event fired, false on timeout.
func (m *Manager) Wait(name Name, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	m.mu.Lock()
	defer m.mu.Unlock()
	startGen := m.generation[name]

	for m.generation[name] == startGen {
		remaining := deadline.Sub(time.Now())
		if remaining <= 0 {
			return false
		}
		if !m.waitUntil(remaining) {
			return false
		}
	}
	return true
}

// waitUntil wakes the condvar-waiting goroutine after d by running a
// timer on a separate goroutine that calls Broadcast. It always returns
// true after a wakeup; Wait tells a signal from a timeout by rechecking
// the generation and the deadline. Kept private: cond.Wait itself has no
// built-in timeout, so this emulates one without leaking goroutines
// indefinitely (the timer always fires or is stopped).
func (m *Manager) waitUntil(d time.Duration) bool {
	timer := time.AfterFunc(d, func() {
		m.cond.Broadcast()
	})
	defer timer.Stop()
	m.cond.Wait()
	return true
}
