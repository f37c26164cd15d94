package bearergrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/metadata"

	"github.com/lpforge/bearerauth"
)

// TokenExtractor reads the bearer token from incoming gRPC metadata. No
// token yields "" and no error.
type TokenExtractor func(ctx context.Context) (string, error)

// ErrMultipleAuthHeaders is returned when more than one authorization entry
// is present.
var ErrMultipleAuthHeaders = errors.New("multiple authorization metadata entries are not allowed")

// MetadataTokenExtractor reads "authorization: Bearer <token>". gRPC
// lowercases incoming metadata keys.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}

	values := md.Get("authorization")
	switch len(values) {
	case 0:
		return "", nil
	case 1:
		return bearerauth.BearerToken(values[0])
	default:
		return "", ErrMultipleAuthHeaders
	}
}
