package bearergrpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lpforge/bearerauth/core"
)

// ErrorHandler converts a rejection into the error returned to the client.
// err matches core.ErrJWTMissing or core.ErrJWTInvalid and, via errors.As,
// a *core.ValidationError carrying the reason.
type ErrorHandler func(error) error

// DefaultErrorHandler answers a key source outage with codes.Unavailable so
// clients retry, and every other rejection with the same generic
// codes.Unauthenticated. The reason never reaches the client.
func DefaultErrorHandler(err error) error {
	if err == nil {
		return nil
	}

	var validationErr *core.ValidationError
	if errors.As(err, &validationErr) && validationErr.Reason.Retryable() {
		return status.Error(codes.Unavailable, "authentication temporarily unavailable")
	}
	if errors.Is(err, core.ErrJWTInvalid) || errors.Is(err, core.ErrJWTMissing) {
		return status.Error(codes.Unauthenticated, "authentication failed")
	}

	return status.Error(codes.Internal, "something went wrong while authenticating the request")
}
