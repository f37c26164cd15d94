// Package bearergin adapts the bearerauth middleware to gin.
package bearergin

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lpforge/bearerauth"
	"github.com/lpforge/bearerauth/core"
)

// DefaultOutcomeKey is the gin context key holding the core.Outcome.
const DefaultOutcomeKey = "bearerauth"

// ErrMissingOutcome is returned by GetOutcome on an unauthenticated request.
var ErrMissingOutcome = errors.New("no authentication outcome found in gin context")

type ginContextKey struct{}

type config struct {
	errorHandler      func(*gin.Context, error)
	contextKey        string
	middlewareOptions []bearerauth.Option
}

// New builds a gin middleware that verifies the bearer token with v. On
// success the outcome is stored under the context key and in the request
// context; on failure the error handler responds and the chain is aborted.
func New(v core.Validator, opts ...Option) (gin.HandlerFunc, error) {
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
			c, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
			if !ok {
				bearerauth.DefaultErrorHandler(w, r, err)
				return
			}
			cfg.errorHandler(c, err)
		}),
	}, cfg.middlewareOptions...)

	middleware, err := bearerauth.New(middlewareOpts...)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			if outcome, err := core.GetOutcome(r.Context()); err == nil {
				c.Set(cfg.contextKey, outcome)
			}
			c.Next()
		})

		r := c.Request.WithContext(context.WithValue(c.Request.Context(), ginContextKey{}, c))
		middleware.CheckJWT(next).ServeHTTP(c.Writer, r)

		if !passed {
			c.Abort()
		}
	}, nil
}

func defaultErrorHandler(c *gin.Context, err error) {
	bearerauth.DefaultErrorHandler(c.Writer, c.Request, err)
	c.Abort()
}

// GetOutcome returns the outcome stored by the middleware under key, or
// DefaultOutcomeKey when key is empty.
func GetOutcome(c *gin.Context, key string) (core.Outcome, error) {
	if key == "" {
		key = DefaultOutcomeKey
	}
	value, exists := c.Get(key)
	if !exists {
		return core.Outcome{}, ErrMissingOutcome
	}
	outcome, ok := value.(core.Outcome)
	if !ok || !outcome.OK() {
		return core.Outcome{}, ErrMissingOutcome
	}
	return outcome, nil
}

// Subject returns the authenticated subject, or "".
func Subject(c *gin.Context) string {
	return core.Subject(c.Request.Context())
}
