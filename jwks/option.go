package jwks

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Defaults applied by NewCache and NewResolver.
const (
	DefaultCacheTTL           = time.Hour
	DefaultFetchTimeout       = 10 * time.Second
	DefaultMinRefreshInterval = time.Duration(0)
	DefaultRetryInterval      = 10 * time.Second
	DefaultMaxForcedRefreshes = 1
	DefaultUnknownKeyTTL      = time.Minute
	DefaultRedisTTL           = 15 * time.Minute
	DefaultRedisKeyPrefix     = "bearerauth:jwks:"
)

// ============================================================================
// Fetcher Options
// ============================================================================

// FetcherOption is how options for the HTTPFetcher are set up.
type FetcherOption func(*HTTPFetcher) error

// WithHTTPClient sets a custom HTTP client for the HTTPFetcher.
// If not specified, a default client with 30s timeout is used.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *HTTPFetcher) error {
		if c == nil {
			return errors.New("HTTP client cannot be nil")
		}
		f.client = c
		return nil
	}
}

// ============================================================================
// Cache Options
// ============================================================================

// CacheOption is how options for the Cache are set up.
type CacheOption func(*Cache) error

// WithFetcher sets the Fetcher used to retrieve keys. Defaults to an
// HTTPFetcher with its default client.
func WithFetcher(fetcher Fetcher) CacheOption {
	return func(c *Cache) error {
		if fetcher == nil {
			return errors.New("fetcher cannot be nil")
		}
		c.fetcher = fetcher
		return nil
	}
}

// WithCacheTTL sets how long a fetched key set stays fresh.
// If not specified, defaults to one hour.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) error {
		if ttl <= 0 {
			return fmt.Errorf("cache TTL must be positive, got %s", ttl)
		}
		c.ttl = ttl
		return nil
	}
}

// WithFetchTimeout bounds each provider fetch. A timeout is reported as a
// *FetchError like any other fetch failure. Defaults to 10 seconds.
func WithFetchTimeout(timeout time.Duration) CacheOption {
	return func(c *Cache) error {
		if timeout <= 0 {
			return fmt.Errorf("fetch timeout must be positive, got %s", timeout)
		}
		c.fetchTimeout = timeout
		return nil
	}
}

// WithMinRefreshInterval sets the minimum age of the key set before an
// unknown kid may force another fetch. Zero, the default, allows a forced
// fetch on every unknown kid not already remembered as unknown. While
// throttled, an unknown kid resolves to ErrKeySourceUnavailable since it
// could not be confirmed missing.
func WithMinRefreshInterval(interval time.Duration) CacheOption {
	return func(c *Cache) error {
		if interval < 0 {
			return errors.New("minimum refresh interval cannot be negative")
		}
		c.minRefreshInterval = interval
		return nil
	}
}

// WithRetryInterval sets how long to wait after a failed fetch before
// contacting the provider again. Defaults to 10 seconds.
func WithRetryInterval(interval time.Duration) CacheOption {
	return func(c *Cache) error {
		if interval < 0 {
			return errors.New("retry interval cannot be negative")
		}
		c.retryInterval = interval
		return nil
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}

// WithLogger sets an optional logger for the Cache.
func WithLogger(logger Logger) CacheOption {
	return func(c *Cache) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets an optional metrics sink for provider fetches.
func WithMetrics(metrics Metrics) CacheOption {
	return func(c *Cache) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		c.metrics = metrics
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for fetch spans.
func WithTracer(tracer trace.Tracer) CacheOption {
	return func(c *Cache) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// ============================================================================
// Resolver Options
// ============================================================================

// ResolverOption is how options for the Resolver are set up.
type ResolverOption func(*Resolver) error

// WithMaxForcedRefreshes bounds the forced refreshes a single Resolve call
// may trigger for an unknown kid. Zero disables forced refreshes.
// Defaults to 1.
func WithMaxForcedRefreshes(n int) ResolverOption {
	return func(r *Resolver) error {
		if n < 0 {
			return errors.New("max forced refreshes cannot be negative")
		}
		r.maxForcedRefreshes = n
		return nil
	}
}

// WithUnknownKeyTTL sets how long a kid confirmed missing is rejected
// without another forced refresh. Zero disables the memory.
// Defaults to one minute.
func WithUnknownKeyTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) error {
		if ttl < 0 {
			return errors.New("unknown key TTL cannot be negative")
		}
		r.unknownKeyTTL = ttl
		return nil
	}
}

// WithResolverLogger sets an optional logger for the Resolver.
func WithResolverLogger(logger Logger) ResolverOption {
	return func(r *Resolver) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// ============================================================================
// RedisFetcher Options
// ============================================================================

// RedisOption is how options for the RedisFetcher are set up.
type RedisOption func(*RedisFetcher) error

// WithRedisTTL sets how long a shared document stays in Redis.
// Defaults to 15 minutes.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(f *RedisFetcher) error {
		if ttl <= 0 {
			return fmt.Errorf("redis TTL must be positive, got %s", ttl)
		}
		f.ttl = ttl
		return nil
	}
}

// WithRedisKeyPrefix sets the prefix of Redis keys. The endpoint URL is
// appended to it.
func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(f *RedisFetcher) error {
		if prefix == "" {
			return errors.New("redis key prefix cannot be empty")
		}
		f.prefix = prefix
		return nil
	}
}

// WithRedisLogger sets an optional logger for the RedisFetcher.
func WithRedisLogger(logger Logger) RedisOption {
	return func(f *RedisFetcher) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		f.logger = logger
		return nil
	}
}
