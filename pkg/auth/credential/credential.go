// Package credential verifies username/password pairs against the user store.
// Password hashes are bcrypt; the cleartext password never leaves the call.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rhuss/tokengate/pkg/auth"
	"github.com/rhuss/tokengate/pkg/observability"
	"github.com/rhuss/tokengate/pkg/storage"
)

// UserFinder is the part of storage.UserStore the authenticator needs.
type UserFinder interface {
	FindUser(ctx context.Context, username string) (*storage.User, error)
}

// Authenticator implements auth.CredentialAuthenticator.
type Authenticator struct {
	users     UserFinder
	dummyHash func() []byte
}

// Ensure Authenticator implements auth.CredentialAuthenticator at compile time.
var _ auth.CredentialAuthenticator = (*Authenticator)(nil)

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithDummyCost sets the bcrypt cost of the hash compared against when the
// user does not exist. It should match the cost of stored hashes. Costs
// outside bcrypt's range are clamped to it.
func WithDummyCost(cost int) Option {
	return func(a *Authenticator) { a.dummyHash = dummyHashFunc(clampCost(cost)) }
}

func clampCost(cost int) int {
	return min(max(cost, bcrypt.MinCost), bcrypt.MaxCost)
}

// New creates an authenticator backed by users.
func New(users UserFinder, opts ...Option) *Authenticator {
	a := &Authenticator{
		users:     users,
		dummyHash: dummyHashFunc(bcrypt.DefaultCost),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func dummyHashFunc(cost int) func() []byte {
	return sync.OnceValue(func() []byte {
		h, err := bcrypt.GenerateFromPassword([]byte("tokengate-dummy-password"), cost)
		if err != nil {
			// The cost is clamped, so this is a failure of the random source.
			panic(fmt.Sprintf("credential: generating dummy hash: %v", err))
		}
		return h
	})
}

// Authenticate looks up the user and compares the password hash.
//
// Outcomes:
//   - Malformed: empty username or password
//   - StoreUnavailable: the store failed or the context was cancelled
//   - UnknownUser: no such user, or no usable role on record
//   - BadPassword: hash mismatch
func (a *Authenticator) Authenticate(ctx context.Context, creds auth.Credentials) auth.Outcome {
	if creds.Username == "" || creds.Password == "" {
		return auth.Failure(auth.ReasonMalformed, errors.New("username and password are required"))
	}

	start := time.Now()
	u, err := a.users.FindUser(ctx, creds.Username)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		observability.StoreLookupDuration.WithLabelValues("not_found").Observe(time.Since(start).Seconds())
		// Spend the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(a.dummyHash(), []byte(creds.Password))
		return auth.Failure(auth.ReasonUnknownUser, err)
	case err != nil:
		observability.StoreLookupDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return auth.Failure(auth.ReasonStoreUnavailable, fmt.Errorf("looking up user: %w", err))
	}
	observability.StoreLookupDuration.WithLabelValues("found").Observe(time.Since(start).Seconds())

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		return auth.Failure(auth.ReasonBadPassword, err)
	}

	id, err := auth.NewIdentity(u.Username, auth.ParseRoles(u.Roles)...)
	if err != nil {
		slog.Warn("user has no usable roles", "username", u.Username, "stored_roles", u.Roles)
		return auth.Failure(auth.ReasonUnknownUser, err)
	}
	return auth.Success(id)
}

// HashPassword returns a bcrypt hash of password suitable for storage.User.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}
