package view

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or already purged view keys.
var ErrNotFound = errors.New("view not found")

// Store keeps live views keyed by id. Expired views are purged lazily
// on access.
type Store struct {
	mu    sync.Mutex
	views map[uuid.UUID]*View
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{views: make(map[uuid.UUID]*View)}
}

// Put registers a view under its id.
func (s *Store) Put(v *View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	s.views[v.ID()] = v
}

// Get returns the view for id. Expired views are removed and reported
// as ErrExpired.
func (s *Store) Get(id uuid.UUID) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "view %s", id)
	}
	if v.Expired() {
		delete(s.views, id)
		return nil, errors.Wrapf(ErrExpired, "view %s", id)
	}
	return v, nil
}

// Len returns the number of live views.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	return len(s.views)
}

func (s *Store) purgeLocked() {
	for id, v := range s.views {
		if v.Expired() {
			delete(s.views, id)
		}
	}
}
