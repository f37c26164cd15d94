package bearergrpc

import (
	"errors"

	"go.opentelemetry.io/otel/trace"

	"github.com/lpforge/bearerauth/core"
)

// Option configures the interceptor.
type Option func(*Interceptor) error

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// WithValidator sets the token validator (required).
//
// Example:
//
//	interceptor, err := bearergrpc.New(
//	    bearergrpc.WithValidator(v),
//	    bearergrpc.WithExcludedMethods("/grpc.health.v1.Health/Check"),
//	)
func WithValidator(v core.Validator) Option {
	return func(i *Interceptor) error {
		if v == nil {
			return errors.New("validator cannot be nil")
		}
		i.coreOptions = append(i.coreOptions, core.WithValidator(v))
		return nil
	}
}

// WithCredentialsOptional lets calls without a token through without an
// outcome in their context.
func WithCredentialsOptional(optional bool) Option {
	return func(i *Interceptor) error {
		i.coreOptions = append(i.coreOptions, core.WithCredentialsOptional(optional))
		return nil
	}
}

// WithLogger sets a logger for both the interceptor and verification.
func WithLogger(logger Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.logger = logger
		i.coreOptions = append(i.coreOptions, core.WithLogger(logger))
		return nil
	}
}

// WithMetrics records one observation per verification.
func WithMetrics(metrics core.Metrics) Option {
	return func(i *Interceptor) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		i.coreOptions = append(i.coreOptions, core.WithMetrics(metrics))
		return nil
	}
}

// WithTracer sets the tracer used for verification spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(i *Interceptor) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		i.coreOptions = append(i.coreOptions, core.WithTracer(tracer))
		return nil
	}
}

// WithTokenExtractor replaces MetadataTokenExtractor.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *Interceptor) error {
		if extractor == nil {
			return errors.New("token extractor cannot be nil")
		}
		i.tokenExtractor = extractor
		return nil
	}
}

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *Interceptor) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		i.errorHandler = handler
		return nil
	}
}

// WithExcludedMethods skips authentication for the given full method names,
// such as "/grpc.health.v1.Health/Check".
func WithExcludedMethods(methods ...string) Option {
	return func(i *Interceptor) error {
		for _, method := range methods {
			i.excludedMethods[method] = struct{}{}
		}
		return nil
	}
}
