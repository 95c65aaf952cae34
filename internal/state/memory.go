// Package state provides the persistence adapters behind the comprehension
// engine: an in-memory store for tests and the simulation harness, and a
// PostgreSQL store for production. Both satisfy ebars.StateStore and
// serialize updates per (student, session) key.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/egitsel/aprag/internal/ebars"
)

// MemoryStore is an in-process ebars.StateStore. Updates for the same key
// are serialized by a per-key mutex; different keys proceed independently.
type MemoryStore struct {
	mu      sync.Mutex // guards the map itself
	entries map[ebars.Key]*memoryEntry
}

type memoryEntry struct {
	mu    sync.Mutex
	state ebars.ComprehensionState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[ebars.Key]*memoryEntry)}
}

// entry returns the entry for key, creating it with the default state when
// create is set.
func (m *MemoryStore) entry(key ebars.Key, create bool) (*memoryEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok && create {
		e = &memoryEntry{state: ebars.NewState(key, time.Now())}
		m.entries[key] = e
		ok = true
	}
	return e, ok
}

// Get implements ebars.StateStore.
func (m *MemoryStore) Get(_ context.Context, key ebars.Key) (ebars.ComprehensionState, bool, error) {
	e, ok := m.entry(key, false)
	if !ok {
		return ebars.ComprehensionState{}, false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, true, nil
}

// Update implements ebars.StateStore. The entry mutex makes the
// read-modify-write atomic per key.
func (m *MemoryStore) Update(_ context.Context, key ebars.Key, fn func(*ebars.ComprehensionState) error) (ebars.ComprehensionState, error) {
	e, _ := m.entry(key, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state
	if err := fn(&next); err != nil {
		return ebars.ComprehensionState{}, err
	}
	e.state = next
	return next, nil
}

// Len reports how many keys the store holds.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// MemoryRecorder is an in-process ebars.EventRecorder keeping events in
// order of arrival. Used by tests and the simulation harness.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []ebars.FeedbackEvent
}

// NewMemoryRecorder creates an empty recorder.
func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

// Record implements ebars.EventRecorder.
func (r *MemoryRecorder) Record(_ context.Context, ev ebars.FeedbackEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of all recorded events.
func (r *MemoryRecorder) Events() []ebars.FeedbackEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ebars.FeedbackEvent, len(r.events))
	copy(out, r.events)
	return out
}
