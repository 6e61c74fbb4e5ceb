package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// Identity represents an authenticated caller. It is immutable: build it with
// NewIdentity, read it through the accessors.
type Identity struct {
	subject string
	roles   []Role
}

// Sentinel errors.
var (
	ErrEmptySubject = errors.New("identity subject is empty")
	ErrNoRoles      = errors.New("identity has no known roles")
)

// NewIdentity builds an identity. The subject must be non-empty and at least
// one known role must remain after normalization.
func NewIdentity(subject string, rs ...Role) (*Identity, error) {
	if subject == "" {
		return nil, ErrEmptySubject
	}
	normalized := normalizeRoles(rs)
	if len(normalized) == 0 {
		return nil, ErrNoRoles
	}
	return &Identity{subject: subject, roles: normalized}, nil
}

// Subject returns the unique identifier of the caller.
func (id *Identity) Subject() string {
	if id == nil {
		return ""
	}
	return id.subject
}

// Roles returns a copy of the caller's roles, sorted.
func (id *Identity) Roles() []Role {
	if id == nil {
		return nil
	}
	out := make([]Role, len(id.roles))
	copy(out, id.roles)
	return out
}

// HasRole reports whether the identity holds r.
func (id *Identity) HasRole(r Role) bool {
	if id == nil {
		return false
	}
	for _, have := range id.roles {
		if have == r {
			return true
		}
	}
	return false
}

// LogValue implements slog.LogValuer.
func (id *Identity) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("subject", id.Subject()),
		slog.Any("roles", RoleNames(id.Roles())),
	)
}

// Credentials is the username/password pair submitted to the login endpoint.
// It must not outlive the request that carried it.
type Credentials struct {
	Username string
	Password string
}

// String redacts the password.
func (c Credentials) String() string {
	return "Credentials{Username:" + c.Username + ", Password:[redacted]}"
}

// LogValue implements slog.LogValuer and never emits the password.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(slog.String("username", c.Username))
}

// CredentialAuthenticator verifies a username/password pair.
type CredentialAuthenticator interface {
	Authenticate(ctx context.Context, creds Credentials) Outcome
}

// TokenAuthenticator verifies the raw value of an Authorization header.
type TokenAuthenticator interface {
	Authenticate(header string) Outcome
}

// Token is a signed bearer token ready to hand to the client.
type Token struct {
	Value     string
	ExpiresAt int64 // unix seconds
}

// TokenIssuer signs tokens for authenticated identities.
type TokenIssuer interface {
	Issue(id *Identity) (Token, error)
}

// SuccessHandler writes the response for a successful login.
type SuccessHandler interface {
	OnSuccess(w http.ResponseWriter, r *http.Request, id *Identity) error
}

// FailureHandler writes the response for any failed outcome.
type FailureHandler interface {
	OnFailure(w http.ResponseWriter, r *http.Request, out Outcome)
}
