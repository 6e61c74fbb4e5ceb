// Package bearer provides the token authenticator used by the token filter.
// It extracts the token from a raw Authorization header value and hands it to
// a Verifier.
package bearer

import (
	"errors"
	"strings"

	"github.com/rhuss/tokengate/pkg/auth"
)

// Scheme is the HTTP authentication scheme accepted in the Authorization header.
const Scheme = "Bearer"

// Verifier validates a bare token.
type Verifier interface {
	Verify(token string) auth.Outcome
}

// Sentinel errors describing why no token was found.
var (
	ErrNoHeader    = errors.New("no authorization header")
	ErrWrongScheme = errors.New("authorization scheme is not Bearer")
	ErrEmptyToken  = errors.New("empty bearer token")
)

// Authenticator implements auth.TokenAuthenticator.
type Authenticator struct {
	verifier Verifier
}

// Ensure Authenticator implements auth.TokenAuthenticator at compile time.
var _ auth.TokenAuthenticator = (*Authenticator)(nil)

// New creates a bearer authenticator backed by v.
func New(v Verifier) *Authenticator {
	return &Authenticator{verifier: v}
}

// Authenticate checks the header and delegates the token to the verifier.
// The verifier's outcome is returned unchanged.
func (a *Authenticator) Authenticate(header string) auth.Outcome {
	tok, err := Extract(header)
	if err != nil {
		return auth.Failure(auth.ReasonMissingToken, err)
	}
	return a.verifier.Verify(tok)
}

// Extract returns the token from an Authorization header value. The scheme
// is matched case-insensitively.
func Extract(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrNoHeader
	}
	scheme, tok, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, Scheme) {
		return "", ErrWrongScheme
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", ErrEmptyToken
	}
	return tok, nil
}
