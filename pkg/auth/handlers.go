package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/tokengate/pkg/api"
	"github.com/rhuss/tokengate/pkg/observability"
	"github.com/rhuss/tokengate/pkg/transport"
)

// TokenResponder is the SuccessHandler of the login filter. It issues a
// token for the identity and writes it in the body and the Authorization
// header.
type TokenResponder struct {
	issuer TokenIssuer
}

// Ensure TokenResponder implements SuccessHandler at compile time.
var _ SuccessHandler = (*TokenResponder)(nil)

// NewTokenResponder creates a responder issuing tokens with issuer.
func NewTokenResponder(issuer TokenIssuer) *TokenResponder {
	return &TokenResponder{issuer: issuer}
}

// OnSuccess issues the token and writes 200. An issuing error is returned
// before anything is written.
func (h *TokenResponder) OnSuccess(w http.ResponseWriter, r *http.Request, id *Identity) error {
	tok, err := h.issuer.Issue(id)
	if err != nil {
		return err
	}
	observability.TokensIssuedTotal.Inc()

	slog.Info("login succeeded",
		"subject", id.Subject(),
		"request_id", transport.RequestIDFromContext(r.Context()),
	)

	w.Header().Set("Authorization", api.TokenTypeBearer+" "+tok.Value)
	w.Header().Set("Cache-Control", "no-store")
	transport.WriteJSON(w, http.StatusOK, api.LoginResponse{
		Token:     tok.Value,
		TokenType: api.TokenTypeBearer,
		ExpiresAt: time.Unix(tok.ExpiresAt, 0).UTC(),
	})
	return nil
}

// ErrorResponder is the FailureHandler shared by all stages. It maps each
// reason to a fixed status and public body and never exposes Outcome.Err.
type ErrorResponder struct{}

// Ensure ErrorResponder implements FailureHandler at compile time.
var _ FailureHandler = ErrorResponder{}

// OnFailure logs the outcome and writes the error response.
func (ErrorResponder) OnFailure(w http.ResponseWriter, r *http.Request, out Outcome) {
	status := StatusFor(out.Reason)
	attrs := []any{
		"reason", string(out.Reason),
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"request_id", transport.RequestIDFromContext(r.Context()),
	}
	if out.Err != nil {
		attrs = append(attrs, "error", out.Err)
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request rejected", attrs...)
	} else {
		slog.Warn("request rejected", attrs...)
	}

	reason, message := publicReason(out.Reason)
	transport.WriteErrorResponse(w, status, api.NewErrorResponse(reason, message))
}

// StatusFor returns the HTTP status for a failure reason.
func StatusFor(reason Reason) int {
	switch reason {
	case ReasonForbidden:
		return http.StatusForbidden
	case ReasonStoreUnavailable:
		return http.StatusServiceUnavailable
	case ReasonMalformed, ReasonUnknownUser, ReasonBadPassword,
		ReasonMissingToken, ReasonInvalidSignature, ReasonExpired:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// publicReason returns the body reason and message for a failure reason.
// Unknown users and bad passwords are indistinguishable.
func publicReason(reason Reason) (string, string) {
	switch reason {
	case ReasonMalformed:
		return api.ReasonMalformed, "malformed authentication request"
	case ReasonUnknownUser, ReasonBadPassword:
		return api.ReasonBadCredentials, "invalid username or password"
	case ReasonMissingToken:
		return api.ReasonMissingToken, "authentication required"
	case ReasonInvalidSignature:
		return api.ReasonInvalidSignature, "invalid token"
	case ReasonExpired:
		return api.ReasonExpired, "token expired"
	case ReasonForbidden:
		return api.ReasonForbidden, "insufficient role"
	case ReasonStoreUnavailable:
		return api.ReasonServiceUnavailable, "authentication temporarily unavailable"
	default:
		return api.ReasonInternalError, "internal error"
	}
}
