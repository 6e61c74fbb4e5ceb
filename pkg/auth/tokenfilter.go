package auth

import "net/http"

// TokenFilter authenticates every request outside the login path from its
// Authorization header.
type TokenFilter struct {
	authn   TokenAuthenticator
	failure FailureHandler
}

// NewTokenFilter creates a token filter.
func NewTokenFilter(authn TokenAuthenticator, failure FailureHandler) *TokenFilter {
	return &TokenFilter{authn: authn, failure: failure}
}

// Process attaches the verified identity to the request context, or writes
// the failure and stops the chain.
func (f *TokenFilter) Process(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	out := f.authn.Authenticate(r.Header.Get("Authorization"))
	if out.OK() {
		if err := r.Context().Err(); err != nil {
			out = Failure(ReasonStoreUnavailable, err)
		}
	}
	recordOutcome("token", out)

	if !out.OK() {
		f.failure.OnFailure(w, r, out)
		return r, false
	}
	return r.WithContext(ContextWithIdentity(r.Context(), out.Identity)), true
}
