// Package core provides framework-agnostic bearer token verification that
// can be used across different transport layers (HTTP, gRPC, etc.).
//
// The Core type wraps a Validator with logging, metrics and tracing and can
// be wrapped by transport-specific adapters.
package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/lpforge/bearerauth/core"

// Validator verifies a raw bearer token and reports the outcome.
// *validator.Validator implements it.
type Validator interface {
	ValidateToken(ctx context.Context, token string) Outcome
}

// Logger defines an optional logging interface for the core.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives one observation per verified token.
type Metrics interface {
	VerificationCompleted(outcome Outcome, duration time.Duration)
}

// Core is the framework-agnostic verification engine.
type Core struct {
	validator           Validator
	credentialsOptional bool
	logger              Logger
	metrics             Metrics
	tracer              trace.Tracer
	now                 func() time.Time
}

// CheckToken verifies a bearer token and returns its outcome.
//
//   - If token is empty and credentialsOptional is true, returns a
//     token_missing outcome and a nil error
//   - If token is empty and credentialsOptional is false, returns a
//     token_missing outcome and an error matching ErrJWTMissing
//   - Otherwise the outcome comes from the validator, and the error is
//     non-nil exactly when the outcome is a rejection
func (c *Core) CheckToken(ctx context.Context, token string) (Outcome, error) {
	if token == "" {
		outcome := Rejected(ReasonTokenMissing, nil)
		if c.credentialsOptional {
			if c.logger != nil {
				c.logger.Debug("No token provided, but credentials are optional")
			}
			return outcome, nil
		}

		if c.logger != nil {
			c.logger.Warn("No token provided and credentials are required")
		}
		return outcome, outcome.Err()
	}

	ctx, span := c.tracer.Start(ctx, "bearerauth.CheckToken", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	start := c.now()
	outcome := c.validator.ValidateToken(ctx, token)
	duration := c.now().Sub(start)

	if c.metrics != nil {
		c.metrics.VerificationCompleted(outcome, duration)
	}

	if !outcome.OK() {
		span.SetAttributes(attribute.String("bearerauth.reason", string(outcome.Reason())))
		span.SetStatus(codes.Error, string(outcome.Reason()))
		if c.logger != nil {
			c.logger.Warn("Token verification failed",
				"reason", outcome.Reason(),
				"error", outcome.Detail(),
				"retryable", outcome.Retryable(),
				"duration", duration)
		}
		return outcome, outcome.Err()
	}

	if c.logger != nil {
		c.logger.Debug("Token verified successfully",
			"subject", outcome.Subject(),
			"duration", duration)
	}

	return outcome, nil
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
