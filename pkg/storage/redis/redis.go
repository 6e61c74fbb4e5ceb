// Package redis provides a Redis implementation of storage.UserStore.
// Each user is a hash at <prefix>user:<username> with the fields
// password_hash, roles (comma-separated), and created_at (RFC 3339).
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rhuss/tokengate/pkg/storage"
)

// DefaultKeyPrefix namespaces all keys written by the store.
const DefaultKeyPrefix = "tokengate:"

// Config holds Redis connection settings.
type Config struct {
	// URL is a redis:// or rediss:// connection URL (e.g., "redis://localhost:6379/0").
	URL string

	// KeyPrefix is prepended to every key (default: "tokengate:").
	KeyPrefix string

	// DialTimeout bounds the initial connectivity check (default: 3s).
	DialTimeout time.Duration
}

func (c *Config) defaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 3 * time.Second
	}
}

// createScript writes the hash only if the key does not exist yet, so a
// concurrent reader never observes a half-written user.
var createScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], "password_hash", ARGV[1], "roles", ARGV[2], "created_at", ARGV[3])
return 1
`)

// Store is a Redis-backed UserStore.
type Store struct {
	client goredis.UniversalClient
	prefix string
	now    func() time.Time
}

// Ensure Store implements storage.UserStore at compile time.
var _ storage.UserStore = (*Store)(nil)

// New connects to Redis and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	if cfg.URL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewWithClient(client, cfg.KeyPrefix), nil
}

// NewWithClient wraps an existing client. An empty prefix selects
// DefaultKeyPrefix.
func NewWithClient(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix, now: time.Now}
}

func (s *Store) key(username string) string {
	return s.prefix + "user:" + username
}

// FindUser reads the user hash.
func (s *Store) FindUser(ctx context.Context, username string) (*storage.User, error) {
	fields, err := s.client.HGetAll(ctx, s.key(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading user: %w", err)
	}
	if len(fields) == 0 {
		return nil, storage.ErrNotFound
	}

	u := &storage.User{
		Username:     username,
		PasswordHash: fields["password_hash"],
		Roles:        splitRoles(fields["roles"]),
	}
	if ts := fields["created_at"]; ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			u.CreatedAt = t
		}
	}
	return u, nil
}

// CreateUser writes the user hash atomically. Returns storage.ErrConflict
// when the key already exists.
func (s *Store) CreateUser(ctx context.Context, u *storage.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	created, err := createScript.Run(ctx, s.client,
		[]string{s.key(u.Username)},
		u.PasswordHash, strings.Join(u.Roles, ","), createdAt.UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return fmt.Errorf("writing user: %w", err)
	}
	if created == 0 {
		return storage.ErrConflict
	}
	return nil
}

// HealthCheck pings the server.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func splitRoles(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
