package bearergrpc

import (
	"context"

	"github.com/lpforge/bearerauth/core"
)

// GetOutcome returns the authentication outcome stored by the interceptor.
//
// Example:
//
//	outcome, err := bearergrpc.GetOutcome(ctx)
//	if err != nil {
//	    return nil, status.Error(codes.Internal, "no authentication outcome")
//	}
//	log.Println(outcome.Subject())
func GetOutcome(ctx context.Context) (core.Outcome, error) {
	return core.GetOutcome(ctx)
}

// Subject returns the authenticated subject, or "" when the call was not
// authenticated.
func Subject(ctx context.Context) string {
	return core.Subject(ctx)
}

// HasOutcome reports whether the call was authenticated.
func HasOutcome(ctx context.Context) bool {
	return core.HasOutcome(ctx)
}
