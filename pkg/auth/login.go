package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rhuss/tokengate/pkg/api"
)

// LoginFilter handles the login endpoint. It always ends the chain: the
// response is written by the success or failure handler.
type LoginFilter struct {
	authn       CredentialAuthenticator
	success     SuccessHandler
	failure     FailureHandler
	maxBodySize int64
}

// NewLoginFilter creates a login filter.
func NewLoginFilter(authn CredentialAuthenticator, success SuccessHandler, failure FailureHandler, maxBodySize int64) *LoginFilter {
	return &LoginFilter{
		authn:       authn,
		success:     success,
		failure:     failure,
		maxBodySize: maxBodySize,
	}
}

// Process parses the credentials, authenticates them, and writes the result.
func (f *LoginFilter) Process(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	out := f.authenticate(w, r)
	if out.OK() {
		err := f.success.OnSuccess(w, r, out.Identity)
		if err == nil {
			recordOutcome("login", out)
			return r, false
		}
		out = Failure(ReasonInternal, err)
	}

	recordOutcome("login", out)
	f.failure.OnFailure(w, r, out)
	return r, false
}

func (f *LoginFilter) authenticate(w http.ResponseWriter, r *http.Request) Outcome {
	creds, err := f.readCredentials(w, r)
	if err != nil {
		return Failure(ReasonMalformed, err)
	}

	out := f.authn.Authenticate(r.Context(), creds)
	if out.OK() {
		if err := r.Context().Err(); err != nil {
			return Failure(ReasonStoreUnavailable, err)
		}
	}
	return out
}

func (f *LoginFilter) readCredentials(w http.ResponseWriter, r *http.Request) (Credentials, error) {
	if r.Method != http.MethodPost {
		return Credentials{}, fmt.Errorf("method %s not allowed on login path", r.Method)
	}
	if r.Body == nil {
		return Credentials{}, errors.New("empty request body")
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, f.maxBodySize))
	dec.DisallowUnknownFields()

	var req api.LoginRequest
	if err := dec.Decode(&req); err != nil {
		return Credentials{}, fmt.Errorf("decoding login body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Credentials{}, errors.New("unexpected data after login body")
	}
	return Credentials{Username: req.Username, Password: req.Password}, nil
}
