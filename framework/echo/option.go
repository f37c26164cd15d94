package bearerecho

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/lpforge/bearerauth"
)

// Option configures the echo middleware.
type Option func(*config) error

// WithErrorHandler replaces the default response for rejected requests. A
// non-nil error returned by handler is passed on to echo's HTTPErrorHandler.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(cfg *config) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		cfg.errorHandler = handler
		return nil
	}
}

// WithContextKey sets the echo context key holding the outcome.
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
