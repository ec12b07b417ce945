// Package memory provides an in-process user store for standalone mode.
package memory

import (
	"context"
	"sync"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
)

// UserStore is a mutex-guarded in-memory domain.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserStore creates an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]domain.User)}
}

// Upsert inserts the user or returns the existing record when the id is
// already present.
func (s *UserStore) Upsert(_ context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[u.ID]; ok {
		return existing, nil
	}
	s.users[u.ID] = u
	return u, nil
}

// Get returns the user with the given id, or domain.ErrNotFound.
func (s *UserStore) Get(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

// Compile-time interface check.
var _ domain.UserStore = (*UserStore)(nil)
