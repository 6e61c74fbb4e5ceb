package server

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/rhuss/tokengate/pkg/config"
	"github.com/rhuss/tokengate/pkg/debug"
	"github.com/rhuss/tokengate/pkg/storage"
	"github.com/rhuss/tokengate/pkg/storage/cache"
	"github.com/rhuss/tokengate/pkg/storage/memory"
	"github.com/rhuss/tokengate/pkg/storage/postgres"
	"github.com/rhuss/tokengate/pkg/storage/redis"
)

// OpenStore opens the backend named by cfg.Type and wraps it in the lookup
// cache when enabled.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.UserStore, error) {
	var store storage.UserStore
	switch cfg.Type {
	case "", "memory":
		store = memory.New()
	case "postgres":
		pg, err := postgres.New(ctx, PostgresConfig(cfg.Postgres))
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		store = pg
	case "redis":
		rs, err := redis.New(ctx, redis.Config{
			URL:       cfg.Redis.URL,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("opening redis store: %w", err)
		}
		store = rs
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}

	if cfg.Cache.Enabled {
		debug.Log("store", "user cache enabled", "size", cfg.Cache.Size, "ttl", cfg.Cache.TTL)
		store = cache.New(store, cfg.Cache.Size, cfg.Cache.TTL)
	}
	return store, nil
}

// PostgresConfig maps the postgres section of the configuration onto the
// store's pool settings.
func PostgresConfig(cfg config.PostgresConfig) postgres.Config {
	return postgres.Config{
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
		ConnectTimeout:  cfg.ConnectTimeout,
		MigrateOnStart:  cfg.MigrateOnStart,
	}
}

// SeedUsers creates the configured users. Users that already exist are left
// untouched, so seeding a persistent store on every start is safe.
func SeedUsers(ctx context.Context, store storage.UserStore, users []config.UserConfig) error {
	for _, uc := range users {
		if _, err := bcrypt.Cost([]byte(uc.PasswordHash)); err != nil {
			return fmt.Errorf("user %q: password hash is not a bcrypt hash: %w", uc.Username, err)
		}
		err := store.CreateUser(ctx, &storage.User{
			Username:     uc.Username,
			PasswordHash: uc.PasswordHash,
			Roles:        uc.Roles,
		})
		switch {
		case err == nil:
			debug.Log("store", "seeded user", "username", uc.Username)
		case errors.Is(err, storage.ErrConflict):
			debug.Log("store", "seed user exists, skipping", "username", uc.Username)
		default:
			return fmt.Errorf("seeding user %q: %w", uc.Username, err)
		}
	}
	return nil
}
