package bearerauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/lpforge/bearerauth/core"
)

// Middleware authenticates net/http requests carrying bearer tokens.
type Middleware struct {
	core                *core.Core
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              Logger
	tracer              trace.Tracer

	// Temporary fields used during construction
	validator           core.Validator
	credentialsOptional bool
	metrics             core.Metrics
}

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core and jwks, so one logger can be
// shared across the stack. See NewLogrusLogger and NewZapLogger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ExclusionURLHandler reports whether a request skips authentication.
type ExclusionURLHandler func(r *http.Request) bool

// New constructs a Middleware. WithValidator is required.
//
// Example:
//
//	middleware, err := bearerauth.New(
//	    bearerauth.WithValidator(v),
//	    bearerauth.WithLogger(bearerauth.NewLogrusLogger(logrus.StandardLogger())),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
func New(opts ...Option) (*Middleware, error) {
	m := &Middleware{
		validateOnOptions:   true,
		credentialsOptional: false,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.validator == nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", ErrValidatorNil)
	}

	m.applyDefaults()

	if err := m.createCore(); err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}

	return m, nil
}

func (m *Middleware) createCore() error {
	coreOpts := []core.Option{
		core.WithValidator(m.validator),
		core.WithCredentialsOptional(m.credentialsOptional),
		core.WithTracer(m.tracer),
	}
	if m.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(m.logger))
	}
	if m.metrics != nil {
		coreOpts = append(coreOpts, core.WithMetrics(m.metrics))
	}

	c, err := core.New(coreOpts...)
	if err != nil {
		return err
	}
	m.core = c
	return nil
}

func (m *Middleware) applyDefaults() {
	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
	if m.tokenExtractor == nil {
		m.tokenExtractor = AuthHeaderTokenExtractor
	}
	if m.tracer == nil {
		m.tracer = defaultTracer()
	}
}

// GetOutcome returns the verification outcome stored by CheckJWT.
func GetOutcome(ctx context.Context) (core.Outcome, error) {
	return core.GetOutcome(ctx)
}

// Subject returns the authenticated subject, or "" when the request was not
// authenticated. Handlers use it as the key into their own user store.
func Subject(ctx context.Context) string {
	return core.Subject(ctx)
}

// CheckJWT wraps next with bearer token authentication. On success the
// outcome is stored in the request context; on failure the error handler
// writes the response and next is not called.
func (m *Middleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			if m.logger != nil {
				m.logger.Debug("skipping authentication for excluded URL",
					"method", r.Method,
					"path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}
		if !m.validateOnOptions && r.Method == http.MethodOptions {
			if m.logger != nil {
				m.logger.Debug("skipping authentication for OPTIONS request")
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx, span := m.startSpan(r)
		defer span.End()

		token, err := m.tokenExtractor(r)
		if err != nil {
			// The request carried a credential that is not a bearer token.
			if m.logger != nil {
				m.logger.Warn("failed to extract token from request",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path)
			}
			recordRejection(span, core.ReasonMalformedToken)
			m.errorHandler(w, r, core.NewValidationError(core.ReasonMalformedToken, "error extracting token", err))
			return
		}

		outcome, err := m.core.CheckToken(ctx, token)
		if err != nil {
			recordRejection(span, outcome.Reason())
			m.errorHandler(w, r, err)
			return
		}

		if !outcome.OK() {
			// Credentials are optional and none were sent.
			next.ServeHTTP(w, r)
			return
		}

		r = r.Clone(core.SetOutcome(ctx, outcome))
		next.ServeHTTP(w, r)
	})
}

// ErrValidatorNil is returned by New without WithValidator.
var ErrValidatorNil = errors.New("validator cannot be nil (use WithValidator)")
