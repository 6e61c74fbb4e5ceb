package api

import "fmt"

// Public reasons carried in error bodies. Credential mismatches share one
// reason so that clients cannot tell unknown users from wrong passwords.
const (
	ReasonMalformed          = "Malformed"
	ReasonBadCredentials     = "BadCredentials"
	ReasonMissingToken       = "MissingToken"
	ReasonInvalidSignature   = "InvalidSignature"
	ReasonExpired            = "Expired"
	ReasonForbidden          = "Forbidden"
	ReasonServiceUnavailable = "ServiceUnavailable"
	ReasonInternalError      = "InternalError"
	ReasonNotFound           = "NotFound"
	ReasonMethodNotAllowed   = "MethodNotAllowed"
)

// ErrorResponse is the JSON body of every rejected request.
type ErrorResponse struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// NewErrorResponse builds an error body.
func NewErrorResponse(reason, message string) *ErrorResponse {
	return &ErrorResponse{Reason: reason, Message: message}
}
