package hxpage

import (
	"maps"
	"sync"
)

// State is a mutable bag of keyed values. Every write publishes
// EventStateChanged with a snapshot of the whole state.
//
// There are no per-key subscriptions; consumers listen for the blanket event
// and compare snapshots themselves.
type State struct {
	mu     sync.RWMutex
	values map[string]any
	bus    *Bus
}

// NewState creates an empty state publishing on bus.
func NewState(bus *Bus) *State {
	return &State{
		values: make(map[string]any),
		bus:    bus,
	}
}

// Set commits value under key and then publishes the new snapshot.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	snap := maps.Clone(s.values)
	s.mu.Unlock()

	s.bus.Publish(EventStateChanged, snap)
}

// Delete removes key and publishes the new snapshot. Deleting a missing key
// still publishes.
func (s *State) Delete(key string) {
	s.mu.Lock()
	delete(s.values, key)
	snap := maps.Clone(s.values)
	s.mu.Unlock()

	s.bus.Publish(EventStateChanged, snap)
}

// Get returns the value stored under key.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Snapshot returns a copy of all values.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}
