package core

// Reason identifies why a token was rejected.
type Reason string

// Rejection reasons.
const (
	ReasonTokenMissing         Reason = "token_missing"
	ReasonMalformedToken       Reason = "malformed_token"
	ReasonUnknownKey           Reason = "unknown_key"
	ReasonKeySourceUnavailable Reason = "key_source_unavailable"
	ReasonAlgorithmMismatch    Reason = "algorithm_mismatch"
	ReasonInvalidSignature     Reason = "invalid_signature"
	ReasonExpired              Reason = "expired"
	ReasonNotYetValid          Reason = "not_yet_valid"
	ReasonClaimMismatch        Reason = "claim_mismatch"
)

var reasonMessages = map[Reason]string{
	ReasonTokenMissing:         "bearer token is missing",
	ReasonMalformedToken:       "bearer token is malformed",
	ReasonUnknownKey:           "signing key is unknown",
	ReasonKeySourceUnavailable: "signing keys are unavailable",
	ReasonAlgorithmMismatch:    "token algorithm does not match the signing key",
	ReasonInvalidSignature:     "token signature is invalid",
	ReasonExpired:              "token is expired",
	ReasonNotYetValid:          "token is not yet valid",
	ReasonClaimMismatch:        "token claims do not match",
}

// Retryable reports whether a caller may retry the same token later.
// Only a transient key source failure qualifies; every other reason is
// permanent for that token.
func (r Reason) Retryable() bool {
	return r == ReasonKeySourceUnavailable
}

func (r Reason) String() string {
	return string(r)
}

// Outcome is the result of verifying one bearer token. It is either
// authenticated (with a subject and the verified claims) or rejected (with a
// reason); the zero value is a rejection for a missing token.
type Outcome struct {
	authenticated bool
	subject       string
	claims        Claims
	reason        Reason
	detail        error
}

// Authenticated builds a successful outcome.
func Authenticated(subject string, claims Claims) Outcome {
	return Outcome{authenticated: true, subject: subject, claims: claims}
}

// Rejected builds a failed outcome. detail is kept for logging only and is
// never meant to reach the client.
func Rejected(reason Reason, detail error) Outcome {
	return Outcome{reason: reason, detail: detail}
}

// OK reports whether the token was authenticated.
func (o Outcome) OK() bool { return o.authenticated }

// Subject returns the sub claim of an authenticated token.
func (o Outcome) Subject() string { return o.subject }

// Claims returns the verified claims of an authenticated token.
func (o Outcome) Claims() Claims { return o.claims }

// Reason returns the rejection reason, or "" when authenticated.
func (o Outcome) Reason() Reason {
	if o.authenticated {
		return ""
	}
	if o.reason == "" {
		return ReasonTokenMissing
	}
	return o.reason
}

// Detail returns the underlying cause of a rejection, if any.
func (o Outcome) Detail() error { return o.detail }

// Retryable reports whether the rejection is transient.
func (o Outcome) Retryable() bool {
	return !o.authenticated && o.Reason().Retryable()
}

// Err converts a rejection into a *ValidationError and returns nil for an
// authenticated outcome.
func (o Outcome) Err() error {
	if o.authenticated {
		return nil
	}
	reason := o.Reason()
	return NewValidationError(reason, reasonMessages[reason], o.detail)
}
