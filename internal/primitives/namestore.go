package primitives

import (
	"fmt"
	"sync"
)

// NameID is a dense integer identifier for a state or trigger name.
type NameID int

const (
	// NoneID is the id of the empty name: the pseudostate and the completion trigger.
	NoneID NameID = 0
	// NoneName is the name interned as NoneID.
	NoneName = ""
)

// NameStore interns state and trigger names. Append-only.
type NameStore struct {
	mu    sync.RWMutex
	ids   map[string]NameID
	names []string
}

// NewNameStore returns a store holding only the empty name.
func NewNameStore() *NameStore {
	return &NameStore{
		ids:   map[string]NameID{NoneName: NoneID},
		names: []string{NoneName},
	}
}

// GetOrNew returns the id of name, allocating the next id on first use.
func (s *NameStore) GetOrNew(name string) NameID {
	s.mu.RLock()
	id, ok := s.ids[name]
	s.mu.RUnlock()
	if ok {
		return id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.ids[name]; ok {
		return id
	}
	id = NameID(len(s.names))
	s.ids[name] = id
	s.names = append(s.names, name)
	return id
}

// Lookup returns the id of name without allocating.
func (s *NameStore) Lookup(name string) (NameID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ids[name]
	return id, ok
}

// NameOf returns the name interned as id, or a placeholder label.
func (s *NameStore) NameOf(id NameID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || int(id) >= len(s.names) {
		return fmt.Sprintf("<undefined:%d>", id)
	}
	return s.names[id]
}

// Len returns the number of interned names, including the empty name.
func (s *NameStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names)
}
