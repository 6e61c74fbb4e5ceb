package storage

import (
	"context"
	"errors"
	"strings"
	"time"
)

// User is a stored account. PasswordHash is a bcrypt hash; the cleartext
// password is never stored.
type User struct {
	Username     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// Validate checks the fields every adapter requires before persisting.
func (u *User) Validate() error {
	var errs []error
	if strings.TrimSpace(u.Username) == "" {
		errs = append(errs, errors.New("username is required"))
	}
	if u.PasswordHash == "" {
		errs = append(errs, errors.New("password hash is required"))
	}
	if len(u.Roles) == 0 {
		errs = append(errs, errors.New("at least one role is required"))
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy so callers cannot mutate a stored record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}

// UserStore resolves and persists users.
//
// FindUser returns ErrNotFound when the user does not exist. Any other error
// means the store could not be consulted.
type UserStore interface {
	FindUser(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	Close() error
}

// HealthChecker is implemented by stores backed by an external service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
