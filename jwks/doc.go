/*
Package jwks fetches, caches and resolves the public signing keys an identity
provider publishes as a JSON Web Key Set.

# Overview

Three pieces work together:

	HTTPFetcher  one GET against the JWKS endpoint, parsed into SigningKeys
	Cache        the current key set, its fetch time and refresh coordination
	Resolver     kid -> SigningKey, with one bounded forced refresh on a miss

Only the Cache holds shared mutable state. Its key set and fetch time are
swapped together as an immutable snapshot, so readers never observe a
partial update, and a failed fetch never replaces keys that are already
cached.

# Refresh Policy

  - A fetched key set is fresh for the cache TTL (default: 1 hour). The first
    lookup after that refreshes before answering.
  - Concurrent callers that need a refresh wait on one shared fetch
    (golang.org/x/sync/singleflight). At most one request to the provider is
    outstanding at any time.
  - A kid missing from a fresh key set forces at most one refresh per call
    (configurable), to pick up key rotation.
  - A kid still missing after a refresh is remembered for the unknown-key
    TTL (default: 1 minute) or until the key set changes, so a forged kid
    costs the provider one request per key set.
  - WithMinRefreshInterval optionally skips forced refreshes while the key
    set is young. A kid that could not be checked that way resolves to
    ErrKeySourceUnavailable, which callers may retry, not ErrUnknownKey.
  - After a failed fetch, stale keys keep serving and the provider is not
    contacted again for the retry interval (default: 10 seconds).

# Basic Usage

	cache, err := jwks.NewCache(jwksURL,
	    jwks.WithCacheTTL(time.Hour),
	    jwks.WithFetchTimeout(5*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	resolver, err := jwks.NewResolver(cache)
	if err != nil {
	    log.Fatal(err)
	}

	key, err := resolver.Resolve(ctx, kid)
	switch {
	case errors.Is(err, jwks.ErrUnknownKey):
	    // permanent for this token
	case errors.Is(err, jwks.ErrKeySourceUnavailable):
	    // transient, the caller may retry later
	}

# Sharing Keys Across Replicas

RedisFetcher sits between the Cache and the provider and keeps the raw JWKS
document in Redis:

	upstream, _ := jwks.NewHTTPFetcher()
	shared, _ := jwks.NewRedisFetcher(redisClient, upstream)
	cache, _ := jwks.NewCache(jwksURL, jwks.WithFetcher(shared))

Forced refreshes bypass Redis and overwrite the shared document.

# Testing

WithFetcher and WithClock let tests replace the network and time:

	cache, _ := jwks.NewCache("https://issuer.example.com/.well-known/jwks.json",
	    jwks.WithFetcher(jwks.FetcherFunc(func(ctx context.Context, endpoint string) ([]jwks.SigningKey, error) {
	        return keys, nil
	    })),
	    jwks.WithClock(clock.Now),
	)
*/
package jwks
