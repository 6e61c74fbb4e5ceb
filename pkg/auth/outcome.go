package auth

import "fmt"

// Reason classifies a failed authentication or authorization attempt.
type Reason string

const (
	ReasonMalformed        Reason = "Malformed"
	ReasonUnknownUser      Reason = "UnknownUser"
	ReasonBadPassword      Reason = "BadPassword"
	ReasonMissingToken     Reason = "MissingToken"
	ReasonInvalidSignature Reason = "InvalidSignature"
	ReasonExpired          Reason = "Expired"
	ReasonForbidden        Reason = "Forbidden"
	ReasonStoreUnavailable Reason = "StoreUnavailable"

	// ReasonInternal covers server-side faults such as a token that could not
	// be signed.
	ReasonInternal Reason = "Internal"
)

// Outcome is the result of an authentication or authorization attempt.
// Exactly one of Identity (success) or Reason (failure) is set.
type Outcome struct {
	Identity *Identity
	Reason   Reason
	Err      error // internal detail for logs, never sent to clients
}

// Success returns a successful outcome carrying id.
func Success(id *Identity) Outcome {
	return Outcome{Identity: id}
}

// Failure returns a failed outcome. err may be nil.
func Failure(reason Reason, err error) Outcome {
	return Outcome{Reason: reason, Err: err}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Reason == "" && o.Identity != nil
}

// String describes the outcome for logging.
func (o Outcome) String() string {
	if o.OK() {
		return "Success(" + o.Identity.Subject() + ")"
	}
	if o.Err != nil {
		return fmt.Sprintf("%s: %v", o.Reason, o.Err)
	}
	return string(o.Reason)
}
