package store

import (
	"sync"

	"retailpulse/internal/event"
)

// EventStore is a bounded in-memory event buffer. When capacity is
// exceeded the oldest events are evicted, so the store never grows
// past its configured bound over the process lifetime.
type EventStore struct {
	mu       sync.RWMutex
	capacity int
	events   []event.Event
}

// NewEventStore creates a store holding at most capacity events.
func NewEventStore(capacity int) *EventStore {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventStore{capacity: capacity}
}

// Append adds events in order, evicting the oldest entries when the
// capacity is exceeded. Returns the number of events now stored.
func (s *EventStore) Append(events []event.Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	if over := len(s.events) - s.capacity; over > 0 {
		s.events = append(s.events[:0:0], s.events[over:]...)
	}
	return len(s.events)
}

// All returns a copy of the stored events in insertion order.
func (s *EventStore) All() []event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of stored events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Reset discards all stored events.
func (s *EventStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
