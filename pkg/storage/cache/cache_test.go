package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rhuss/tokengate/pkg/storage"
	"github.com/rhuss/tokengate/pkg/storage/memory"
)

// countingStore counts FindUser calls reaching the backend.
type countingStore struct {
	storage.UserStore
	finds int
	err   error
}

func (c *countingStore) FindUser(ctx context.Context, username string) (*storage.User, error) {
	c.finds++
	if c.err != nil {
		return nil, c.err
	}
	return c.UserStore.FindUser(ctx, username)
}

func newBackend(t *testing.T) *countingStore {
	t.Helper()
	m := memory.New()
	err := m.CreateUser(context.Background(), &storage.User{
		Username: "alice", PasswordHash: "h", Roles: []string{"USER"},
	})
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}
	return &countingStore{UserStore: m}
}

func TestHitsAreCached(t *testing.T) {
	backend := newBackend(t)
	s := New(backend, 10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		u, err := s.FindUser(ctx, "alice")
		if err != nil {
			t.Fatalf("FindUser failed: %v", err)
		}
		if u.Username != "alice" {
			t.Errorf("Username = %q, want %q", u.Username, "alice")
		}
	}
	if backend.finds != 1 {
		t.Errorf("backend finds = %d, want 1", backend.finds)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestMissesAreNotCached(t *testing.T) {
	backend := newBackend(t)
	s := New(backend, 10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.FindUser(ctx, "nobody"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if backend.finds != 2 {
		t.Errorf("backend finds = %d, want 2", backend.finds)
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	backend := newBackend(t)
	backend.err = errors.New("connection refused")
	s := New(backend, 10, time.Minute)

	if _, err := s.FindUser(context.Background(), "alice"); err == nil {
		t.Fatal("expected error")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestEntriesExpire(t *testing.T) {
	backend := newBackend(t)
	s := New(backend, 10, 20*time.Millisecond)
	ctx := context.Background()

	s.FindUser(ctx, "alice")
	time.Sleep(60 * time.Millisecond)
	s.FindUser(ctx, "alice")

	if backend.finds != 2 {
		t.Errorf("backend finds = %d, want 2 after expiry", backend.finds)
	}
}

func TestCachedUserIsCopy(t *testing.T) {
	s := New(newBackend(t), 10, time.Minute)
	ctx := context.Background()

	u, _ := s.FindUser(ctx, "alice")
	u.Roles[0] = "ADMIN"

	again, _ := s.FindUser(ctx, "alice")
	if again.Roles[0] != "USER" {
		t.Errorf("cached roles mutated: %v", again.Roles)
	}
}

func TestCreateWritesThrough(t *testing.T) {
	backend := newBackend(t)
	s := New(backend, 0, 0)
	ctx := context.Background()

	err := s.CreateUser(ctx, &storage.User{Username: "bob", PasswordHash: "h", Roles: []string{"USER"}})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := backend.UserStore.FindUser(ctx, "bob"); err != nil {
		t.Errorf("user not written to backend: %v", err)
	}
}

type unhealthyStore struct {
	*memory.Store
}

func (unhealthyStore) HealthCheck(context.Context) error {
	return errors.New("connection refused")
}

func TestHealthCheckDelegates(t *testing.T) {
	healthy := New(memory.New(), 0, 0)
	if err := healthy.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() on memory backend = %v, want nil", err)
	}

	sick := New(unhealthyStore{memory.New()}, 0, 0)
	if err := sick.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() = nil, want the backend error")
	}
}
