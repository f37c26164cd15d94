package jwks

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/require"
)

// testEndpoint is never contacted; tests inject fetchers.
const testEndpoint = "https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_test/.well-known/jwks.json"

var (
	rsaKeysMu sync.Mutex
	rsaKeys   = map[string]*rsa.PrivateKey{}
)

// rsaKey returns a cached 2048-bit key per kid; generation is slow.
func rsaKey(t *testing.T, kid string) *rsa.PrivateKey {
	t.Helper()

	rsaKeysMu.Lock()
	defer rsaKeysMu.Unlock()

	if key, ok := rsaKeys[kid]; ok {
		return key
	}
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	rsaKeys[kid] = key
	return key
}

func signingKey(t *testing.T, kid string) SigningKey {
	t.Helper()
	return SigningKey{KeyID: kid, Algorithm: jwa.RS256, PublicKey: &rsaKey(t, kid).PublicKey}
}

// jwksDocument builds a JWKS document publishing the RSA keys for kids.
func jwksDocument(t *testing.T, kids ...string) []byte {
	t.Helper()

	set := jwk.NewSet()
	for _, kid := range kids {
		key, err := jwk.FromRaw(&rsaKey(t, kid).PublicKey)
		require.NoError(t, err)
		require.NoError(t, key.Set(jwk.KeyIDKey, kid))
		require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.RS256))
		require.NoError(t, key.Set(jwk.KeyUsageKey, "sig"))
		require.NoError(t, set.AddKey(key))
	}

	doc, err := json.Marshal(set)
	require.NoError(t, err)
	return doc
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// providerStub stands in for the identity provider. It serves whatever key
// set or error is currently configured and counts calls.
type providerStub struct {
	mu    sync.Mutex
	keys  []SigningKey
	err   error
	calls atomic.Int32
}

func newProviderStub(keys ...SigningKey) *providerStub {
	return &providerStub{keys: keys}
}

func (p *providerStub) Fetch(_ context.Context, _ string) ([]SigningKey, error) {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return append([]SigningKey(nil), p.keys...), nil
}

func (p *providerStub) serve(keys ...SigningKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys, p.err = keys, nil
}

func (p *providerStub) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *providerStub) Calls() int {
	return int(p.calls.Load())
}

func newTestCache(t *testing.T, fetcher Fetcher, clock *fakeClock, opts ...CacheOption) *Cache {
	t.Helper()

	cache, err := NewCache(testEndpoint, append([]CacheOption{
		WithFetcher(fetcher),
		WithClock(clock.Now),
	}, opts...)...)
	require.NoError(t, err)
	return cache
}
