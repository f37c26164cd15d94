package bearerauth

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/lpforge/bearerauth/core"
)

// DefaultRetryAfter is the Retry-After sent by DefaultErrorHandler when the
// signing keys are unavailable. It matches the JWKS cache's default retry
// interval.
const DefaultRetryAfter = 10 * time.Second

const (
	failedBody      = `{"message":"authentication failed"}`
	unavailableBody = `{"message":"authentication temporarily unavailable"}`
	internalBody    = `{"message":"something went wrong while authenticating the request"}`
)

// ErrorHandler writes the response for a rejected request. err matches
// core.ErrJWTMissing or core.ErrJWTInvalid and, via errors.As, a
// *core.ValidationError carrying the reason. Handlers must not echo the
// reason to the client.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler answers every rejection with the same generic 401, and
// a key source outage with 503 and Retry-After.
var DefaultErrorHandler = NewErrorHandler(DefaultRetryAfter)

// NewErrorHandler builds the default error handler with a custom
// Retry-After for retryable rejections.
func NewErrorHandler(retryAfter time.Duration) ErrorHandler {
	seconds := strconv.Itoa(int(retryAfter.Round(time.Second) / time.Second))

	return func(w http.ResponseWriter, _ *http.Request, err error) {
		w.Header().Set("Content-Type", "application/json")

		var validationErr *core.ValidationError
		switch {
		case errors.As(err, &validationErr) && validationErr.Reason.Retryable():
			w.Header().Set("Retry-After", seconds)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(unavailableBody))
		case errors.Is(err, core.ErrJWTMissing):
			// RFC 6750 section 3.1: no error code when no credential was sent.
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(failedBody))
		case errors.Is(err, core.ErrJWTInvalid):
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(failedBody))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(internalBody))
		}
	}
}
