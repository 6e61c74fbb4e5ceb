// Package memory provides an in-memory implementation of storage.UserStore
// for tests and single-node deployments. Users are lost when the process
// restarts unless they are seeded again from configuration.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rhuss/tokengate/pkg/storage"
)

// Store is an in-memory UserStore.
type Store struct {
	mu    sync.RWMutex
	users map[string]*storage.User
	now   func() time.Time
}

// Ensure Store implements storage.UserStore at compile time.
var _ storage.UserStore = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		users: make(map[string]*storage.User),
		now:   time.Now,
	}
}

// FindUser returns a copy of the stored user.
func (s *Store) FindUser(ctx context.Context, username string) (*storage.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u.Clone(), nil
}

// CreateUser stores a copy of u. CreatedAt is set when zero.
func (s *Store) CreateUser(ctx context.Context, u *storage.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := u.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.Username]; exists {
		return storage.ErrConflict
	}

	c := u.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.users[c.Username] = c
	return nil
}

// Usernames returns all stored usernames, sorted.
func (s *Store) Usernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
