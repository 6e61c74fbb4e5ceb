package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool defaults. A login costs one short query, so a small pool suffices.
const (
	DefaultMaxConns        = 10
	DefaultMinConns        = 1
	DefaultMaxConnLifetime = 30 * time.Minute
	DefaultMaxConnIdleTime = 5 * time.Minute
	DefaultConnectTimeout  = 5 * time.Second
)

// Config holds the user store connection settings.
type Config struct {
	// DSN is the PostgreSQL connection string, e.g.
	// "postgres://tokengate:secret@db:5432/tokengate?sslmode=require".
	DSN string

	MaxConns int32
	MinConns int32

	// MaxConnLifetime recycles connections so credential rotation on the
	// database side takes effect without a restart.
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// ConnectTimeout bounds establishing a single connection. Lookups
	// themselves are bounded by the request context.
	ConnectTimeout time.Duration

	// MigrateOnStart creates the users table on startup.
	MigrateOnStart bool
}

// defaults applies default values for unset configuration fields.
func (c *Config) defaults() {
	if c.MaxConns == 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.MinConns == 0 {
		c.MinConns = DefaultMinConns
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = DefaultMaxConnLifetime
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = DefaultMaxConnIdleTime
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
}

// poolConfig parses the DSN and applies the pool settings. It does not
// connect.
func (c Config) poolConfig() (*pgxpool.Config, error) {
	c.defaults()
	if c.MinConns > c.MaxConns {
		return nil, fmt.Errorf("min conns (%d) exceeds max conns (%d)", c.MinConns, c.MaxConns)
	}
	if c.MaxConnLifetime < 0 || c.MaxConnIdleTime < 0 || c.ConnectTimeout < 0 {
		return nil, errors.New("pool durations must not be negative")
	}

	poolCfg, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = c.MaxConns
	poolCfg.MinConns = c.MinConns
	poolCfg.MaxConnLifetime = c.MaxConnLifetime
	poolCfg.MaxConnIdleTime = c.MaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = c.ConnectTimeout
	return poolCfg, nil
}
