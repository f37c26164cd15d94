package jwks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of *redis.Client used by RedisFetcher.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisFetcher shares the raw JWKS document between replicas through Redis
// so that a fleet of processes makes one provider request per Redis TTL
// instead of one per process. Forced refreshes always go to the provider and
// overwrite the shared copy. Redis errors degrade to a direct fetch.
type RedisFetcher struct {
	client   RedisClient
	upstream *HTTPFetcher
	ttl      time.Duration
	prefix   string
	logger   Logger
}

// NewRedisFetcher builds a RedisFetcher in front of upstream.
func NewRedisFetcher(client RedisClient, upstream *HTTPFetcher, opts ...RedisOption) (*RedisFetcher, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if upstream == nil {
		return nil, errors.New("upstream fetcher is required")
	}

	f := &RedisFetcher{
		client:   client,
		upstream: upstream,
		ttl:      DefaultRedisTTL,
		prefix:   DefaultRedisKeyPrefix,
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return f, nil
}

// Fetch returns the shared document when present, otherwise fetches from
// the provider and publishes the document for other replicas.
func (f *RedisFetcher) Fetch(ctx context.Context, endpoint string) ([]SigningKey, error) {
	key := f.prefix + endpoint

	if !IsForcedRefresh(ctx) {
		doc, err := f.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			keys, parseErr := ParseKeySet(doc)
			if parseErr == nil {
				return keys, nil
			}
			if f.logger != nil {
				f.logger.Warn("discarding unusable shared JWKS document", "key", key, "error", parseErr)
			}
		case errors.Is(err, redis.Nil):
		default:
			if f.logger != nil {
				f.logger.Warn("redis unavailable, fetching JWKS directly", "key", key, "error", err)
			}
		}
	}

	doc, err := f.upstream.FetchDocument(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	keys, err := ParseKeySet(doc)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}

	if err := f.client.Set(ctx, key, doc, f.ttl).Err(); err != nil && f.logger != nil {
		f.logger.Warn("could not share JWKS document", "key", key, "error", err)
	}

	return keys, nil
}
