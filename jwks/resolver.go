package jwks

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var (
	// ErrUnknownKey is returned when a kid is not in the key set even after
	// the bounded forced refresh.
	ErrUnknownKey = errors.New("jwks: unknown key id")

	// ErrKeySourceUnavailable is returned when the key set could not be
	// fetched and no previously fetched keys exist.
	ErrKeySourceUnavailable = errors.New("jwks: key source unavailable")
)

// Resolver maps a token's kid to a cached signing key.
//
// A kid missing from a fresh key set triggers at most MaxForcedRefreshes
// forced refreshes (one by default) to pick up a provider key rotation. A kid
// still missing afterwards is remembered as unknown until the key set
// changes or the unknown-key TTL passes, so repeated forged kids do not
// reach the provider.
type Resolver struct {
	cache              *Cache
	maxForcedRefreshes int
	unknownKeyTTL      time.Duration
	unknown            *gocache.Cache
	logger             Logger
}

// NewResolver builds a Resolver over cache.
func NewResolver(cache *Cache, opts ...ResolverOption) (*Resolver, error) {
	if cache == nil {
		return nil, errors.New("cache is required")
	}

	r := &Resolver{
		cache:              cache,
		maxForcedRefreshes: DefaultMaxForcedRefreshes,
		unknownKeyTTL:      DefaultUnknownKeyTTL,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if r.unknownKeyTTL > 0 {
		r.unknown = gocache.New(r.unknownKeyTTL, 2*r.unknownKeyTTL)
	}

	return r, nil
}

// Cache returns the underlying key cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve returns the signing key for kid. Errors match ErrUnknownKey or
// ErrKeySourceUnavailable.
func (r *Resolver) Resolve(ctx context.Context, kid string) (SigningKey, error) {
	if err := r.cache.RefreshIfNeeded(ctx); err != nil {
		if r.cache.Len() == 0 {
			return SigningKey{}, fmt.Errorf("%w: %w", ErrKeySourceUnavailable, err)
		}
		if r.logger != nil {
			r.logger.Warn("serving stale JWKS after failed refresh", "error", err)
		}
	}

	if key, ok := r.cache.Get(kid); ok {
		return key, nil
	}

	if r.knownUnknown(kid) {
		return SigningKey{}, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
	}

	confirmed := false
	for attempt := 0; attempt < r.maxForcedRefreshes; attempt++ {
		err := r.cache.ForceRefresh(ctx, r.cache.Generation())
		if key, ok := r.cache.Get(kid); ok {
			return key, nil
		}
		if err != nil {
			// The kid may belong to a rotated key set that could not be
			// fetched; the caller may retry the same token.
			if r.logger != nil {
				r.logger.Warn("forced JWKS refresh did not run for unknown key",
					"kid", kid,
					"error", err)
			}
			return SigningKey{}, fmt.Errorf("%w: kid %q: %w", ErrKeySourceUnavailable, kid, err)
		}
		confirmed = true
	}

	if confirmed {
		r.rememberUnknown(kid)
	}
	if r.logger != nil {
		r.logger.Warn("token references unknown key", "kid", kid)
	}

	return SigningKey{}, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
}

func (r *Resolver) knownUnknown(kid string) bool {
	if r.unknown == nil {
		return false
	}
	generation, found := r.unknown.Get(kid)
	return found && generation == r.cache.Generation()
}

func (r *Resolver) rememberUnknown(kid string) {
	if r.unknown == nil {
		return
	}
	r.unknown.SetDefault(kid, r.cache.Generation())
}
