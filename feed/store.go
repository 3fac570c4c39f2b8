package feed

import (
	"sync"
)

// Listener receives a snapshot of every item that changes, in change order.
type Listener func(Item)

// Store is the in-memory representation of the feed the UI renders from.
// Items enter through Upsert when a page of the feed loads; their like/save
// state is then mutated only by the Engine, never directly by readers.
type Store struct {
	mu        sync.RWMutex
	items     map[string]Item
	listeners map[int]Listener
	nextID    int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		items:     make(map[string]Item),
		listeners: make(map[int]Listener),
	}
}

// Upsert inserts or replaces an item, typically from a feed page load.
func (s *Store) Upsert(item Item) {
	s.mu.Lock()
	s.items[item.ID] = item
	notify := s.listenerSnapshot()
	s.mu.Unlock()

	for _, l := range notify {
		l(item)
	}
}

// Get returns the current snapshot of an item.
func (s *Store) Get(itemID string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	return item, ok
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

// Unsubscribe removes a previously registered listener.
func (s *Store) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, id)
}

// setFlag flips the viewer boolean of one family. Engine use only.
func (s *Store) setFlag(itemID string, family Family, value bool) {
	s.mu.Lock()
	item, ok := s.items[itemID]
	if !ok {
		s.mu.Unlock()
		return
	}
	if family == FamilySave {
		item.SavedByViewer = value
	} else {
		item.LikedByViewer = value
	}
	s.items[itemID] = item
	notify := s.listenerSnapshot()
	s.mu.Unlock()

	for _, l := range notify {
		l(item)
	}
}

// setLikeCount overwrites the cached count with the backend's authoritative
// value. Engine use only.
func (s *Store) setLikeCount(itemID string, count int) {
	s.mu.Lock()
	item, ok := s.items[itemID]
	if !ok || item.LikeCount == count {
		s.mu.Unlock()
		return
	}
	item.LikeCount = count
	s.items[itemID] = item
	notify := s.listenerSnapshot()
	s.mu.Unlock()

	for _, l := range notify {
		l(item)
	}
}

func (s *Store) listenerSnapshot() []Listener {
	notify := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		notify = append(notify, l)
	}
	return notify
}
