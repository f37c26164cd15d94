package bearerauth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lpforge/bearerauth/jwks"
	"github.com/lpforge/bearerauth/validator"
)

// identityProvider publishes a JWKS over HTTP and signs tokens.
type identityProvider struct {
	t      *testing.T
	server *httptest.Server
	hits   atomic.Int32

	mu        sync.Mutex
	keys      map[string]*rsa.PrivateKey
	published []string
}

func newIdentityProvider(t *testing.T) *identityProvider {
	t.Helper()

	p := &identityProvider{t: t, keys: map[string]*rsa.PrivateKey{}}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		p.hits.Add(1)
		p.mu.Lock()
		defer p.mu.Unlock()

		set := jose.JSONWebKeySet{}
		for _, kid := range p.published {
			set.Keys = append(set.Keys, jose.JSONWebKey{
				Key:       &p.keys[kid].PublicKey,
				KeyID:     kid,
				Algorithm: string(jose.RS256),
				Use:       "sig",
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *identityProvider) jwksURL() string {
	return p.server.URL + "/.well-known/jwks.json"
}

func (p *identityProvider) issuer() string {
	return p.server.URL
}

func (p *identityProvider) publish(kids ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, kid := range kids {
		if _, ok := p.keys[kid]; !ok {
			key, err := rsa.GenerateKey(rand.Reader, 2048)
			require.NoError(p.t, err)
			p.keys[kid] = key
		}
	}
	p.published = kids
}

func (p *identityProvider) sign(kid, subject string, expiresIn time.Duration) string {
	p.mu.Lock()
	key := p.keys[kid]
	p.mu.Unlock()
	if key == nil {
		var err error
		key, err = rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(p.t, err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub":       subject,
		"iss":       p.issuer(),
		"aud":       "app-client",
		"token_use": "id",
		"exp":       time.Now().Add(expiresIn).Unix(),
	})
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(p.t, err)
	return signed
}

func TestCheckJWT_EndToEnd(t *testing.T) {
	provider := newIdentityProvider(t)
	provider.publish("key-a")

	reg := prometheus.NewRegistry()
	metrics, err := NewPrometheusMetrics(reg)
	require.NoError(t, err)

	cache, err := jwks.NewCache(provider.jwksURL(),
		jwks.WithMetrics(metrics),
	)
	require.NoError(t, err)
	resolver, err := jwks.NewResolver(cache)
	require.NoError(t, err)
	v, err := validator.New(
		validator.WithKeyResolver(resolver),
		validator.WithIssuer(provider.issuer()),
		validator.WithAudience("app-client"),
		validator.WithTokenUse(validator.TokenUseID),
	)
	require.NoError(t, err)
	middleware, err := New(WithValidator(v), WithMetrics(metrics))
	require.NoError(t, err)

	handler := middleware.CheckJWT(echoSubject)
	call := func(token string) *httptest.ResponseRecorder {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/me", nil)
		request.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	t.Run("a valid token is authenticated with one fetch", func(t *testing.T) {
		token := provider.sign("key-a", "user-a", time.Hour)
		for i := 0; i < 3; i++ {
			response := call(token)
			require.Equal(t, http.StatusOK, response.Code, response.Body.String())
			assert.JSONEq(t, `{"authenticated":true,"subject":"user-a"}`, response.Body.String())
		}
		assert.Equal(t, int32(1), provider.hits.Load())
	})

	t.Run("a rotated key is picked up", func(t *testing.T) {
		provider.publish("key-a", "key-b")
		response := call(provider.sign("key-b", "user-b", time.Hour))
		require.Equal(t, http.StatusOK, response.Code, response.Body.String())
		assert.Equal(t, int32(2), provider.hits.Load())
	})

	t.Run("an expired token is rejected without a fetch", func(t *testing.T) {
		response := call(provider.sign("key-a", "user-a", -time.Minute))
		assert.Equal(t, http.StatusUnauthorized, response.Code)
		assert.Equal(t, int32(2), provider.hits.Load())
	})

	t.Run("a forged kid is rejected after one forced fetch", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			response := call(provider.sign("forged", "attacker", time.Hour))
			assert.Equal(t, http.StatusUnauthorized, response.Code)
		}
		assert.Equal(t, int32(3), provider.hits.Load())
	})

	t.Run("metrics saw every verification and fetch", func(t *testing.T) {
		assert.Equal(t, 4.0, testutil.ToFloat64(metrics.verifications.WithLabelValues("authenticated", "")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.verifications.WithLabelValues("rejected", "expired")))
		assert.Equal(t, 5.0, testutil.ToFloat64(metrics.verifications.WithLabelValues("rejected", "unknown_key")))
		assert.Equal(t, 3.0, testutil.ToFloat64(metrics.fetches.WithLabelValues("success")))
	})
}
