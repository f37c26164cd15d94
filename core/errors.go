package core

import "errors"

// Sentinel errors for bearer token verification.
var (
	// ErrJWTMissing is returned when the request carries no bearer token.
	ErrJWTMissing = errors.New("jwt missing")

	// ErrJWTInvalid is returned when the JWT is rejected.
	// Every *ValidationError reports true for errors.Is(err, ErrJWTInvalid).
	ErrJWTInvalid = errors.New("jwt invalid")

	// ErrOutcomeNotFound is returned when no outcome is stored in the context.
	ErrOutcomeNotFound = errors.New("authentication outcome not found in context")
)

// ValidationError is the error form of a rejected Outcome.
// It provides structured error information that can be used for
// logging, metrics, and returning appropriate error responses.
type ValidationError struct {
	// Reason is the machine-readable rejection reason.
	Reason Reason

	// Message is a human-readable error message
	Message string

	// Details contains the underlying error
	Details error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is allows the error to be compared with ErrJWTInvalid, and with
// ErrJWTMissing when the token was absent.
func (e *ValidationError) Is(target error) bool {
	if target == ErrJWTMissing {
		return e.Reason == ReasonTokenMissing
	}
	return target == ErrJWTInvalid
}

// NewValidationError creates a new ValidationError with the given reason and message.
func NewValidationError(reason Reason, message string, details error) *ValidationError {
	return &ValidationError{
		Reason:  reason,
		Message: message,
		Details: details,
	}
}
