/*
Package bearergrpc verifies bearer tokens on gRPC servers.

It reads "authorization: Bearer <token>" from incoming metadata, verifies it
with the same core.Validator the HTTP middleware uses, and stores the
core.Outcome in the handler's context.

# Usage

	interceptor, err := bearergrpc.New(
	    bearergrpc.WithValidator(v),
	    bearergrpc.WithExcludedMethods("/grpc.health.v1.Health/Check"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	server := grpc.NewServer(
	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
	)

Handlers read the caller with Subject or GetOutcome:

	func (s *server) GetProfile(ctx context.Context, req *pb.GetProfileRequest) (*pb.Profile, error) {
	    return s.profiles.Get(ctx, bearergrpc.Subject(ctx))
	}

# Status codes

DefaultErrorHandler returns codes.Unavailable when the signing keys cannot be
fetched, so clients retry, and codes.Unauthenticated with a generic message
for every other rejection. Use WithErrorHandler to change the mapping.
*/
package bearergrpc
