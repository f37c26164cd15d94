package bearergrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/lpforge/bearerauth/core"
)

// Interceptor verifies bearer tokens on incoming gRPC calls.
type Interceptor struct {
	core            *core.Core
	tokenExtractor  TokenExtractor
	errorHandler    ErrorHandler
	excludedMethods map[string]struct{}
	logger          Logger

	coreOptions []core.Option
}

// New creates an interceptor. WithValidator is required.
func New(opts ...Option) (*Interceptor, error) {
	i := &Interceptor{
		tokenExtractor:  MetadataTokenExtractor,
		errorHandler:    DefaultErrorHandler,
		excludedMethods: make(map[string]struct{}),
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	c, err := core.New(i.coreOptions...)
	if err != nil {
		return nil, err
	}
	i.core = c

	return i, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that stores
// the outcome in the handler's context.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if i.excluded(info.FullMethod) {
			return handler(ctx, req)
		}

		ctx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that stores
// the outcome in the stream's context.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if i.excluded(info.FullMethod) {
			return handler(srv, ss)
		}

		ctx, err := i.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

func (i *Interceptor) excluded(method string) bool {
	_, ok := i.excludedMethods[method]
	if ok && i.logger != nil {
		i.logger.Debug("skipping authentication for excluded method", "method", method)
	}
	return ok
}

func (i *Interceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	token, err := i.tokenExtractor(ctx)
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("failed to extract token from gRPC metadata",
				"error", err,
				"method", method)
		}
		return ctx, i.errorHandler(core.NewValidationError(core.ReasonMalformedToken, "error extracting token", err))
	}

	outcome, err := i.core.CheckToken(ctx, token)
	if err != nil {
		return ctx, i.errorHandler(err)
	}
	if !outcome.OK() {
		// Credentials are optional and none were sent.
		return ctx, nil
	}

	return core.SetOutcome(ctx, outcome), nil
}

type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
