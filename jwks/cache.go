package jwks

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	instrumentationName = "github.com/lpforge/bearerauth/jwks"

	// refreshKey is the single-flight key shared by every refresh of a Cache.
	refreshKey = "refresh"
)

// ErrRefreshThrottled is returned by ForceRefresh when the key set was
// fetched too recently to ask the provider again.
var ErrRefreshThrottled = errors.New("jwks: refresh throttled")

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives one observation per provider fetch.
type Metrics interface {
	FetchCompleted(err error, duration time.Duration)
}

// snapshot is an immutable view of the cache. Keys and fetch time are
// always replaced together.
type snapshot struct {
	keys       map[string]SigningKey
	fetchedAt  time.Time
	generation uint64
}

type failure struct {
	at  time.Time
	err *FetchError
}

// Cache holds the current signing keys of one JWKS endpoint.
//
// A successful fetch is valid for the configured TTL. Concurrent callers
// that need a refresh share one outstanding fetch. A failed fetch keeps the
// previous keys, and while they are kept further attempts wait for the
// retry interval.
type Cache struct {
	endpoint           string
	fetcher            Fetcher
	ttl                time.Duration
	fetchTimeout       time.Duration
	minRefreshInterval time.Duration
	retryInterval      time.Duration
	now                func() time.Time
	logger             Logger
	metrics            Metrics
	tracer             trace.Tracer

	current     atomic.Pointer[snapshot]
	lastFailure atomic.Pointer[failure]
	inFlight    atomic.Bool
	group       singleflight.Group
}

// NewCache builds a Cache for endpoint. Nothing is fetched until first use.
//
// Example:
//
//	cache, err := jwks.NewCache(
//	    "https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_example/.well-known/jwks.json",
//	    jwks.WithCacheTTL(time.Hour),
//	)
func NewCache(endpoint string, opts ...CacheOption) (*Cache, error) {
	if endpoint == "" {
		return nil, errors.New("JWKS endpoint is required")
	}

	c := &Cache{
		endpoint:           endpoint,
		ttl:                DefaultCacheTTL,
		fetchTimeout:       DefaultFetchTimeout,
		minRefreshInterval: DefaultMinRefreshInterval,
		retryInterval:      DefaultRetryInterval,
		now:                time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if c.fetcher == nil {
		fetcher, err := NewHTTPFetcher()
		if err != nil {
			return nil, err
		}
		c.fetcher = fetcher
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(instrumentationName)
	}

	return c, nil
}

// Endpoint returns the JWKS URL this cache fetches from.
func (c *Cache) Endpoint() string {
	return c.endpoint
}

// Get looks kid up in the current key set without refreshing.
func (c *Cache) Get(kid string) (SigningKey, bool) {
	snap := c.current.Load()
	if snap == nil {
		return SigningKey{}, false
	}
	key, ok := snap.keys[kid]
	return key, ok
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	snap := c.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.keys)
}

// FetchedAt returns when the current key set was fetched, or the zero time.
func (c *Cache) FetchedAt() time.Time {
	snap := c.current.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.fetchedAt
}

// Generation counts successful refreshes. Callers pass the value they
// observed to ForceRefresh.
func (c *Cache) Generation() uint64 {
	return generationOf(c.current.Load())
}

// RefreshInFlight reports whether a fetch is outstanding.
func (c *Cache) RefreshInFlight() bool {
	return c.inFlight.Load()
}

// RefreshIfNeeded fetches the key set when it is empty or older than the
// TTL. It returns nil when usable keys are present, including stale keys
// kept after a failure while the retry interval has not passed.
func (c *Cache) RefreshIfNeeded(ctx context.Context) error {
	snap := c.current.Load()
	now := c.now()

	if snap != nil && now.Sub(snap.fetchedAt) < c.ttl {
		return nil
	}

	if last := c.recentFailure(now); last != nil {
		if snap != nil {
			return nil
		}
		return last.err
	}

	return c.refresh(ctx, generationOf(snap), false)
}

// ForceRefresh fetches the key set because a kid was not found. It does
// nothing if the key set has already been replaced since the caller observed
// generation, and returns ErrRefreshThrottled if the current key set is
// younger than the minimum refresh interval.
func (c *Cache) ForceRefresh(ctx context.Context, generation uint64) error {
	snap := c.current.Load()
	if generationOf(snap) != generation {
		return nil
	}

	now := c.now()
	if snap != nil && now.Sub(snap.fetchedAt) < c.minRefreshInterval {
		return ErrRefreshThrottled
	}
	if last := c.recentFailure(now); last != nil {
		return last.err
	}

	return c.refresh(ctx, generation, true)
}

func (c *Cache) recentFailure(now time.Time) *failure {
	last := c.lastFailure.Load()
	if last == nil || now.Sub(last.at) >= c.retryInterval {
		return nil
	}
	return last
}

// refresh joins or starts the single outstanding fetch. The waiting caller
// may give up on its own context; the fetch continues for the others.
func (c *Cache) refresh(ctx context.Context, observed uint64, forced bool) error {
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		return nil, c.fetch(ctx, observed, forced)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return &FetchError{Endpoint: c.endpoint, Err: ctx.Err()}
	}
}

func (c *Cache) fetch(ctx context.Context, observed uint64, forced bool) error {
	cur := c.current.Load()
	if generationOf(cur) != observed {
		// Replaced by a fetch that finished after this caller looked.
		return nil
	}
	if last := c.recentFailure(c.now()); last != nil {
		// A fetch failed after this caller looked; share its result.
		return last.err
	}

	c.inFlight.Store(true)
	defer c.inFlight.Store(false)

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
	defer cancel()
	if forced {
		fetchCtx = withForcedRefresh(fetchCtx)
	}

	fetchCtx, span := c.tracer.Start(fetchCtx, "jwks.Fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("jwks.endpoint", c.endpoint),
			attribute.Bool("jwks.forced", forced),
		))
	defer span.End()

	start := c.now()
	keys, err := c.fetcher.Fetch(fetchCtx, c.endpoint)
	if err == nil && len(keys) == 0 {
		err = ErrNoUsableKeys
	}
	duration := c.now().Sub(start)

	if c.metrics != nil {
		c.metrics.FetchCompleted(err, duration)
	}

	if err != nil {
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			fetchErr = &FetchError{Endpoint: c.endpoint, Err: err}
		}
		c.lastFailure.Store(&failure{at: c.now(), err: fetchErr})

		span.RecordError(fetchErr)
		span.SetStatus(codes.Error, "fetch failed")
		if c.logger != nil {
			c.logger.Warn("JWKS refresh failed, keeping previous keys",
				"endpoint", c.endpoint,
				"forced", forced,
				"cached_keys", len(keysOf(cur)),
				"error", fetchErr,
				"duration", duration)
		}
		return fetchErr
	}

	next := &snapshot{
		keys:       indexKeys(keys),
		fetchedAt:  c.now(),
		generation: observed + 1,
	}
	c.current.CompareAndSwap(cur, next)
	c.lastFailure.Store(nil)

	span.SetAttributes(attribute.Int("jwks.keys", len(next.keys)))
	if c.logger != nil {
		c.logger.Info("JWKS refreshed",
			"endpoint", c.endpoint,
			"forced", forced,
			"keys", len(next.keys),
			"generation", next.generation,
			"duration", duration)
	}

	return nil
}

func generationOf(snap *snapshot) uint64 {
	if snap == nil {
		return 0
	}
	return snap.generation
}

func keysOf(snap *snapshot) map[string]SigningKey {
	if snap == nil {
		return nil
	}
	return snap.keys
}
