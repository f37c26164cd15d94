package bearerauth

import (
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/lpforge/bearerauth/core"
)

// Option configures the Middleware.
// Returns error for validation failures.
type Option func(*Middleware) error

// WithValidator sets the token validator (REQUIRED). *validator.Validator
// satisfies core.Validator.
//
// Example:
//
//	v, err := validator.New(
//	    validator.WithKeyResolver(resolver),
//	    validator.WithIssuer(issuerURL),
//	    validator.WithAudience(appClientID),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	middleware, err := bearerauth.New(
//	    bearerauth.WithValidator(v),
//	)
func WithValidator(v core.Validator) Option {
	return func(m *Middleware) error {
		if v == nil {
			return ErrValidatorNil
		}
		m.validator = v
		return nil
	}
}

// WithCredentialsOptional lets requests without a bearer token through
// unauthenticated. A token that is present is still verified.
//
// Default: false (credentials required)
func WithCredentialsOptional(value bool) Option {
	return func(m *Middleware) error {
		m.credentialsOptional = value
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests are authenticated.
// Disable it when CORS preflight requests reach the middleware.
//
// Default: true
func WithValidateOnOptions(value bool) Option {
	return func(m *Middleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// WithErrorHandler sets the handler that writes the response for a
// rejected request.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Middleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithTokenExtractor sets the function that reads the token from a request.
//
// Default: AuthHeaderTokenExtractor
func WithTokenExtractor(e TokenExtractor) Option {
	return func(m *Middleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithExclusionURLs skips authentication for requests whose path or full
// URL equals one of exclusions, such as health checks.
func WithExclusionURLs(exclusions []string) Option {
	return func(m *Middleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionURLsEmpty
		}
		excluded := make(map[string]struct{}, len(exclusions))
		for _, exclusion := range exclusions {
			excluded[exclusion] = struct{}{}
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			if _, ok := excluded[r.URL.Path]; ok {
				return true
			}
			_, ok := excluded[r.URL.String()]
			return ok
		}
		return nil
	}
}

// WithLogger sets an optional logger for the middleware and its core.
func WithLogger(logger Logger) Option {
	return func(m *Middleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// WithMetrics records one observation per verified token, typically a
// *PrometheusMetrics.
func WithMetrics(metrics core.Metrics) Option {
	return func(m *Middleware) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		m.metrics = metrics
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer. Defaults to the global tracer
// provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Middleware) error {
		if tracer == nil {
			return ErrTracerNil
		}
		m.tracer = tracer
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrErrorHandlerNil    = errors.New("errorHandler cannot be nil")
	ErrTokenExtractorNil  = errors.New("tokenExtractor cannot be nil")
	ErrExclusionURLsEmpty = errors.New("exclusion URLs list cannot be empty")
	ErrLoggerNil          = errors.New("logger cannot be nil")
	ErrMetricsNil         = errors.New("metrics cannot be nil")
	ErrTracerNil          = errors.New("tracer cannot be nil")
)
