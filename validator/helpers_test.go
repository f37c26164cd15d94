package validator

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/stretchr/testify/require"

	"github.com/lpforge/bearerauth/jwks"
)

const (
	testIssuer   = "https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_test"
	testClientID = "3n4b5urk1ft4fl3mg5e62d9ado"
	testSubject  = "b7d4f1c2-8a3e-4e5b-9c6d-0f1a2b3c4d5e"
)

var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

var (
	rsaKeysMu sync.Mutex
	rsaKeys   = map[string]*rsa.PrivateKey{}
)

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

func rsaSigningKey(t *testing.T, kid string) jwks.SigningKey {
	t.Helper()
	return jwks.SigningKey{KeyID: kid, Algorithm: jwa.RS256, PublicKey: &rsaKey(t, kid).PublicKey}
}

func ecKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func edKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return key
}

// validClaims returns Cognito-shaped ID token claims valid at testNow.
func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":       testSubject,
		"iss":       testIssuer,
		"aud":       testClientID,
		"token_use": "id",
		"iat":       testNow.Add(-time.Minute).Unix(),
		"exp":       testNow.Add(time.Hour).Unix(),
		"email":     "user@example.com",
	}
}

func withClaims(overrides jwt.MapClaims, remove ...string) jwt.MapClaims {
	claims := validClaims()
	for name, value := range overrides {
		claims[name] = value
	}
	for _, name := range remove {
		delete(claims, name)
	}
	return claims
}

// mintToken signs claims with the given method and key and sets kid.
func mintToken(t *testing.T, method jwt.SigningMethod, key any, kid string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func mintRS256(t *testing.T, kid string, claims jwt.MapClaims) string {
	t.Helper()
	return mintToken(t, jwt.SigningMethodRS256, rsaKey(t, kid), kid, claims)
}

// rawToken assembles a token from literal header and payload JSON.
func rawToken(header, payload string, signature []byte) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(header)) + "." +
		enc.EncodeToString([]byte(payload)) + "." +
		enc.EncodeToString(signature)
}

// tamperSignature flips one bit of the decoded signature.
func tamperSignature(t *testing.T, token string) string {
	t.Helper()

	i := strings.LastIndexByte(token, '.')
	signature, err := base64.RawURLEncoding.DecodeString(token[i+1:])
	require.NoError(t, err)
	require.NotEmpty(t, signature)
	signature[len(signature)/2] ^= 0x01
	return token[:i+1] + base64.RawURLEncoding.EncodeToString(signature)
}

// swapPayload keeps header and signature but replaces the payload.
func swapPayload(t *testing.T, token, payload string) string {
	t.Helper()

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(payload))
	return strings.Join(parts, ".")
}

// staticResolver serves a fixed set of keys.
type staticResolver map[string]jwks.SigningKey

func (r staticResolver) Resolve(_ context.Context, kid string) (jwks.SigningKey, error) {
	key, ok := r[kid]
	if !ok {
		return jwks.SigningKey{}, fmt.Errorf("%w: %q", jwks.ErrUnknownKey, kid)
	}
	return key, nil
}

type resolverFunc func(ctx context.Context, kid string) (jwks.SigningKey, error)

func (f resolverFunc) Resolve(ctx context.Context, kid string) (jwks.SigningKey, error) {
	return f(ctx, kid)
}

func newTestValidator(t *testing.T, resolver KeyResolver, opts ...Option) *Validator {
	t.Helper()

	v, err := New(append([]Option{
		WithKeyResolver(resolver),
		WithClock(func() time.Time { return testNow }),
	}, opts...)...)
	require.NoError(t, err)
	return v
}
