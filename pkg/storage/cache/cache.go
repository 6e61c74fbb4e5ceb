// Package cache wraps a storage.UserStore with a bounded, expiring
// read-through cache. Only successful lookups are cached: a missing user or
// a store error always reaches the backend again.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rhuss/tokengate/pkg/debug"
	"github.com/rhuss/tokengate/pkg/storage"
)

// Defaults for the cache size and entry lifetime.
const (
	DefaultSize = 1024
	DefaultTTL  = time.Minute
)

// Store is a caching UserStore decorator.
type Store struct {
	next  storage.UserStore
	users *expirable.LRU[string, *storage.User]
}

// Ensure Store implements storage.UserStore at compile time.
var _ storage.UserStore = (*Store)(nil)

// New wraps next. Non-positive size or ttl select the defaults.
func New(next storage.UserStore, size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		next:  next,
		users: expirable.NewLRU[string, *storage.User](size, nil, ttl),
	}
}

// FindUser serves from the cache when possible.
func (s *Store) FindUser(ctx context.Context, username string) (*storage.User, error) {
	if u, ok := s.users.Get(username); ok {
		debug.Log("store", "user cache hit", "username", username)
		return u.Clone(), nil
	}
	debug.Log("store", "user cache miss", "username", username)

	u, err := s.next.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}
	s.users.Add(username, u.Clone())
	return u, nil
}

// CreateUser writes through and drops any cached entry for the name.
func (s *Store) CreateUser(ctx context.Context, u *storage.User) error {
	if err := s.next.CreateUser(ctx, u); err != nil {
		return err
	}
	s.users.Remove(u.Username)
	return nil
}

// HealthCheck probes the wrapped store when it supports health checks.
func (s *Store) HealthCheck(ctx context.Context) error {
	if hc, ok := s.next.(storage.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// Len returns the number of cached users.
func (s *Store) Len() int {
	return s.users.Len()
}

// Close purges the cache and closes the wrapped store.
func (s *Store) Close() error {
	s.users.Purge()
	return s.next.Close()
}
