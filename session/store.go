package session

import (
	"sync"
)

// Listener receives every published session snapshot, in publish order.
type Listener func(Session)

// Store holds the current Session and notifies subscribed listeners on every
// change. It is created SignedOut. The store is passed by reference to
// anything that needs to read or observe the session; there is no package
// level instance.
//
// Writes go through Set and are expected to come from a single owning
// controller; all other holders are read-only observers.
type Store struct {
	mu        sync.RWMutex
	current   Session
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a Store in the SignedOut state.
func NewStore() *Store {
	return &Store{
		current:   SignedOut(),
		listeners: make(map[int]Listener),
	}
}

// Current returns the latest published session snapshot.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set publishes a new session snapshot and notifies listeners.
// Listeners are invoked outside the store lock so they may read the store.
func (s *Store) Set(next Session) {
	s.mu.Lock()
	s.current = next
	notify := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		notify = append(notify, l)
	}
	s.mu.Unlock()

	for _, l := range notify {
		l(next)
	}
}

// Subscribe registers a listener and returns a token for Unsubscribe.
func (s *Store) Subscribe(l Listener) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return id
}

// Unsubscribe removes a previously registered listener. Unknown tokens are
// ignored.
func (s *Store) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, id)
}
