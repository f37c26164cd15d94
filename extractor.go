package bearerauth

import (
	"errors"
	"net/http"
	"strings"
)

// ErrInvalidAuthHeader is returned when an Authorization header is present
// but is not of the form "Bearer <token>".
var ErrInvalidAuthHeader = errors.New("authorization header format must be Bearer {token}")

// TokenExtractor reads the bearer token from a request. A request without a
// token yields "" and no error; an error means a credential was sent in a
// form that cannot be a bearer token.
type TokenExtractor func(r *http.Request) (string, error)

// AuthHeaderTokenExtractor reads the token from "Authorization: Bearer
// <token>". The scheme is case-insensitive.
func AuthHeaderTokenExtractor(r *http.Request) (string, error) {
	return BearerToken(r.Header.Get("Authorization"))
}

// BearerToken parses an Authorization header value. Transports other than
// net/http (gRPC metadata, framework contexts) share it.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", nil
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrInvalidAuthHeader
	}

	return token, nil
}

// CookieTokenExtractor reads the token from the named cookie, for browser
// clients that keep the ID token in a cookie instead of a header.
func CookieTokenExtractor(cookieName string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		return cookie.Value, nil
	}
}

// MultiTokenExtractor tries extractors in order and returns the first
// non-empty token. An extractor error is returned immediately.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, extract := range extractors {
			token, err := extract(r)
			if err != nil {
				return "", err
			}
			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
