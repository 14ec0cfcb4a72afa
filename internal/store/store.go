// Package store keeps compositions between requests so they can be
// extended or exported later.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// ErrNotFound is returned for an unknown composition id
var ErrNotFound = errors.New("composition not found")

// DefaultMemoryLimit is the MemoryStore capacity when none is given
const DefaultMemoryLimit = 500

// Store persists composition states. Stored states are treated as
// immutable: callers replace a composition by saving a new state.
type Store interface {
	Save(ctx context.Context, state *models.CompositionState) error
	Get(ctx context.Context, id string) (*models.CompositionState, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a bounded in-process Store. When full, the least recently
// updated composition is evicted.
type MemoryStore struct {
	mu     sync.RWMutex
	limit  int
	states map[string]*models.CompositionState
}

// NewMemoryStore creates a MemoryStore holding at most limit compositions
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &MemoryStore{
		limit:  limit,
		states: make(map[string]*models.CompositionState),
	}
}

// Save stores or replaces a composition
func (s *MemoryStore) Save(_ context.Context, state *models.CompositionState) error {
	if state == nil || state.ID == "" {
		return errors.New("composition has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.ID] = state
	if len(s.states) > s.limit {
		s.evict(len(s.states) - s.limit)
	}
	return nil
}

// Get returns a stored composition
func (s *MemoryStore) Get(_ context.Context, id string) (*models.CompositionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[id]
	if !ok {
		return nil, ErrNotFound
	}
	return state, nil
}

// Delete removes a composition
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[id]; !ok {
		return ErrNotFound
	}
	delete(s.states, id)
	return nil
}

// Len returns the number of stored compositions
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// evict drops the n least recently updated states. Caller holds the lock.
func (s *MemoryStore) evict(n int) {
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		ta, tb := s.states[ids[a]].UpdatedAt, s.states[ids[b]].UpdatedAt
		if ta.Equal(tb) {
			return ids[a] < ids[b]
		}
		return ta.Before(tb)
	})
	for _, id := range ids[:n] {
		delete(s.states, id)
	}
}
