package auth

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// AccessRule requires Role for every path under PathPrefix.
type AccessRule struct {
	PathPrefix string
	Role       Role
}

// DefaultAccessRules reserves /api/admin for administrators.
func DefaultAccessRules() []AccessRule {
	return []AccessRule{{PathPrefix: "/api/admin", Role: RoleAdmin}}
}

// AccessDecision checks that an authenticated caller holds the role required
// for the requested path. The longest matching rule wins; paths no rule
// matches need the global required role.
type AccessDecision struct {
	required Role
	rules    []AccessRule
	failure  FailureHandler
}

// NewAccessDecision validates the rules and orders them longest prefix first.
func NewAccessDecision(required Role, rules []AccessRule, failure FailureHandler) (*AccessDecision, error) {
	var errs []error
	if !required.Valid() {
		errs = append(errs, fmt.Errorf("required role %v is not a known role", required))
	}
	sorted := make([]AccessRule, 0, len(rules))
	for _, rule := range rules {
		if !strings.HasPrefix(rule.PathPrefix, "/") {
			errs = append(errs, fmt.Errorf("access rule prefix %q must start with /", rule.PathPrefix))
		}
		if !rule.Role.Valid() {
			errs = append(errs, fmt.Errorf("access rule %q: role %v is not a known role", rule.PathPrefix, rule.Role))
		}
		sorted = append(sorted, rule)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].PathPrefix) > len(sorted[j].PathPrefix)
	})
	return &AccessDecision{required: required, rules: sorted, failure: failure}, nil
}

// RequiredRole returns the role needed to access path.
func (a *AccessDecision) RequiredRole(path string) Role {
	for _, rule := range a.rules {
		if prefixMatches(rule.PathPrefix, path) {
			return rule.Role
		}
	}
	return a.required
}

// Decide grants access iff id holds the role required for path.
func (a *AccessDecision) Decide(id *Identity, path string) Outcome {
	if id == nil {
		return Failure(ReasonMissingToken, errors.New("no authenticated identity"))
	}
	role := a.RequiredRole(path)
	if !id.HasRole(role) {
		return Failure(ReasonForbidden, fmt.Errorf("%s lacks role %s for %s", id.Subject(), role, path))
	}
	return Success(id)
}

// Process applies Decide to the identity attached by the token filter.
func (a *AccessDecision) Process(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	out := a.Decide(IdentityFromContext(r.Context()), r.URL.Path)
	recordOutcome("access", out)

	if !out.OK() {
		a.failure.OnFailure(w, r, out)
		return r, false
	}
	return r, true
}

// prefixMatches reports whether path is prefix itself or lies below it.
func prefixMatches(prefix, path string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}
