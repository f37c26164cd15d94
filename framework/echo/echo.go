// Package bearerecho adapts the bearerauth middleware to echo.
package bearerecho

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lpforge/bearerauth"
	"github.com/lpforge/bearerauth/core"
)

// DefaultOutcomeKey is the echo context key holding the core.Outcome.
const DefaultOutcomeKey = "bearerauth"

// ErrMissingOutcome is returned by GetOutcome on an unauthenticated request.
var ErrMissingOutcome = errors.New("no authentication outcome found in echo context")

type echoContextKey struct{}

type config struct {
	errorHandler      func(echo.Context, error) error
	contextKey        string
	middlewareOptions []bearerauth.Option
}

// New builds an echo middleware that verifies the bearer token with v.
func New(v core.Validator, opts ...Option) (echo.MiddlewareFunc, error) {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		contextKey:   DefaultOutcomeKey,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	middlewareOpts := append([]bearerauth.Option{
		bearerauth.WithValidator(v),
		bearerauth.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			state, ok := r.Context().Value(echoContextKey{}).(*requestState)
			if !ok {
				bearerauth.DefaultErrorHandler(w, r, err)
				return
			}
			state.err = cfg.errorHandler(state.c, err)
		}),
	}, cfg.middlewareOptions...)

	middleware, err := bearerauth.New(middlewareOpts...)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state := &requestState{c: c}
			handler := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				if outcome, err := core.GetOutcome(r.Context()); err == nil {
					c.Set(cfg.contextKey, outcome)
				}
				state.err = next(c)
			})

			r := c.Request()
			r = r.WithContext(context.WithValue(r.Context(), echoContextKey{}, state))
			middleware.CheckJWT(handler).ServeHTTP(c.Response(), r)

			return state.err
		}
	}, nil
}

// requestState carries the echo context into the net/http error handler and
// the handler error back out.
type requestState struct {
	c   echo.Context
	err error
}

func defaultErrorHandler(c echo.Context, err error) error {
	bearerauth.DefaultErrorHandler(c.Response(), c.Request(), err)
	return nil
}

// GetOutcome returns the outcome stored by the middleware under key, or
// DefaultOutcomeKey when key is empty.
func GetOutcome(c echo.Context, key string) (core.Outcome, error) {
	if key == "" {
		key = DefaultOutcomeKey
	}
	outcome, ok := c.Get(key).(core.Outcome)
	if !ok || !outcome.OK() {
		return core.Outcome{}, ErrMissingOutcome
	}
	return outcome, nil
}

// Subject returns the authenticated subject, or "".
func Subject(c echo.Context) string {
	return core.Subject(c.Request().Context())
}
