// Package token issues and verifies the signed bearer tokens handed out on
// login. Tokens are compact HS256 JWTs carrying the subject, the role names,
// and issued-at, expiry, and token-id claims. Nothing about an issued token is
// kept on the server.
package token

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rhuss/tokengate/pkg/auth"
	"github.com/rhuss/tokengate/pkg/debug"
)

// MinSecretLength is the shortest signing secret accepted, matching the
// HS256 output size.
const MinSecretLength = 32

// Sentinel errors returned by New.
var (
	ErrNoSecret   = errors.New("token signing secret is empty")
	ErrInvalidTTL = errors.New("token ttl must be positive")
)

// Config holds the codec configuration.
type Config struct {
	// Secret is the HMAC-SHA256 signing key shared by issue and verify.
	Secret []byte

	// TTL is the lifetime of issued tokens.
	TTL time.Duration

	// Issuer is written to the iss claim and, when set, required on verify.
	Issuer string

	// Now overrides the clock (useful for testing). Defaults to time.Now.
	Now func() time.Time
}

// Claims is the token payload.
type Claims struct {
	Roles []string `json:"roles"`
	jwtlib.RegisteredClaims
}

// Codec signs and verifies tokens. It is safe for concurrent use; all fields
// are read-only after New.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Ensure Codec implements auth.TokenIssuer at compile time.
var _ auth.TokenIssuer = (*Codec)(nil)

// New creates a codec. It fails when the secret is empty or the TTL is not
// positive.
func New(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrNoSecret
	}
	if cfg.TTL <= 0 {
		return nil, ErrInvalidTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &Codec{
		secret: secret,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    cfg.Now,
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for id.
func (c *Codec) Issue(id *auth.Identity) (auth.Token, error) {
	if id == nil {
		return auth.Token{}, errors.New("issuing token: nil identity")
	}

	now := c.now()
	exp := now.Add(c.ttl)
	claims := Claims{
		Roles: auth.RoleNames(id.Roles()),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   id.Subject(),
			Issuer:    c.issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return auth.Token{}, fmt.Errorf("signing token: %w", err)
	}

	return auth.Token{Value: signed, ExpiresAt: claims.ExpiresAt.Unix()}, nil
}

// Verify validates a compact token and rebuilds the identity it carries.
//
// Outcomes:
//   - Malformed: not a JWT, no exp, or a validly signed token without sub or
//     a known role
//   - Expired: exp has passed, whatever the signature
//   - InvalidSignature: bad or undecodable signature, wrong algorithm, or
//     wrong issuer
func (c *Codec) Verify(tokenStr string) auth.Outcome {
	var unverified Claims
	if _, _, err := jwtlib.NewParser().ParseUnverified(tokenStr, &unverified); err != nil {
		return auth.Failure(auth.ReasonMalformed, fmt.Errorf("parsing token: %w", err))
	}
	if unverified.ExpiresAt == nil {
		return auth.Failure(auth.ReasonMalformed, errors.New("token missing exp claim"))
	}

	now := c.now()
	if !now.Before(unverified.ExpiresAt.Time) {
		return auth.Failure(auth.ReasonExpired, jwtlib.ErrTokenExpired)
	}

	var claims Claims
	_, err := jwtlib.ParseWithClaims(tokenStr, &claims, c.keyFunc, c.parserOptions(now)...)
	if err != nil {
		debug.Log("token", "token validation failed", "error", err)
		return auth.Failure(classify(err), fmt.Errorf("invalid token: %w", err))
	}

	if claims.Subject == "" {
		return auth.Failure(auth.ReasonMalformed, errors.New("token missing sub claim"))
	}
	roles := auth.ParseRoles(claims.Roles)
	if len(roles) == 0 {
		return auth.Failure(auth.ReasonMalformed, errors.New("token carries no known role"))
	}
	id, err := auth.NewIdentity(claims.Subject, roles...)
	if err != nil {
		return auth.Failure(auth.ReasonMalformed, err)
	}
	return auth.Success(id)
}

func (c *Codec) keyFunc(t *jwtlib.Token) (any, error) {
	if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.secret, nil
}

// parserOptions builds JWT parser options based on the configuration.
func (c *Codec) parserOptions(now time.Time) []jwtlib.ParserOption {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(func() time.Time { return now }),
		jwtlib.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(c.issuer))
	}
	return opts
}

// classify maps a verification error onto a failure reason. Header and
// payload already parsed, so a malformed error here can only come from the
// signature segment.
func classify(err error) auth.Reason {
	if errors.Is(err, jwtlib.ErrTokenExpired) {
		return auth.ReasonExpired
	}
	return auth.ReasonInvalidSignature
}
