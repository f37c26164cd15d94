package bearergin

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/lpforge/bearerauth"
)

// Option configures the gin middleware.
type Option func(*config) error

// WithErrorHandler replaces the default response for rejected requests. The
// handler must write a response; the chain is aborted afterwards either way.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(cfg *config) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		cfg.errorHandler = handler
		return nil
	}
}

// WithContextKey sets the gin context key holding the outcome.
func WithContextKey(key string) Option {
	return func(cfg *config) error {
		if key == "" {
			return errors.New("context key cannot be empty")
		}
		cfg.contextKey = key
		return nil
	}
}

// WithMiddlewareOptions passes options such as WithLogger, WithMetrics or
// WithTokenExtractor to the underlying bearerauth middleware.
func WithMiddlewareOptions(opts ...bearerauth.Option) Option {
	return func(cfg *config) error {
		cfg.middlewareOptions = append(cfg.middlewareOptions, opts...)
		return nil
	}
}
