package jwks

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// ErrNoUsableKeys is returned when a key set document parses but contains no
// key that can verify signatures.
var ErrNoUsableKeys = errors.New("jwks: document contains no usable signing keys")

// SigningKey is one public verification key published by the provider.
// It is never mutated after parsing; a refresh replaces whole key sets.
type SigningKey struct {
	KeyID     string
	Algorithm jwa.SignatureAlgorithm
	PublicKey crypto.PublicKey
}

// ParseKeySet converts a JWKS document into signing keys. Entries without a
// kid, entries not meant for signatures, symmetric keys and keys whose
// declared algorithm does not fit their material are skipped. A document
// that yields no keys at all is an error.
func ParseKeySet(doc []byte) ([]SigningKey, error) {
	set, err := jwk.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("jwks: could not parse key set: %w", err)
	}

	keys := make([]SigningKey, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		signingKey, err := signingKeyFromJWK(key)
		if err != nil {
			continue
		}
		keys = append(keys, signingKey)
	}

	if len(keys) == 0 {
		return nil, ErrNoUsableKeys
	}

	return keys, nil
}

func signingKeyFromJWK(key jwk.Key) (SigningKey, error) {
	kid := key.KeyID()
	if kid == "" {
		return SigningKey{}, errors.New("key has no kid")
	}
	if use := key.KeyUsage(); use != "" && use != string(jwk.ForSignature) {
		return SigningKey{}, fmt.Errorf("key %q is not a signing key (use=%s)", kid, use)
	}
	if key.KeyType() == jwa.OctetSeq {
		return SigningKey{}, fmt.Errorf("key %q is symmetric", kid)
	}

	publicJWK, err := key.PublicKey()
	if err != nil {
		return SigningKey{}, fmt.Errorf("key %q: %w", kid, err)
	}
	var raw any
	if err := publicJWK.Raw(&raw); err != nil {
		return SigningKey{}, fmt.Errorf("key %q: %w", kid, err)
	}
	publicKey, err := normalizePublicKey(raw)
	if err != nil {
		return SigningKey{}, fmt.Errorf("key %q: %w", kid, err)
	}

	var alg jwa.SignatureAlgorithm
	if declared := key.Algorithm(); declared != nil && declared.String() != "" {
		alg = jwa.SignatureAlgorithm(declared.String())
	} else {
		alg = defaultAlgorithm(publicKey)
	}
	if !algorithmFits(alg, publicKey) {
		return SigningKey{}, fmt.Errorf("key %q: algorithm %s does not fit %T", kid, alg, publicKey)
	}

	return SigningKey{KeyID: kid, Algorithm: alg, PublicKey: publicKey}, nil
}

func normalizePublicKey(raw any) (crypto.PublicKey, error) {
	switch k := raw.(type) {
	case *rsa.PublicKey:
		return k, nil
	case rsa.PublicKey:
		return &k, nil
	case *ecdsa.PublicKey:
		return k, nil
	case ecdsa.PublicKey:
		return &k, nil
	case ed25519.PublicKey:
		return k, nil
	case *ed25519.PublicKey:
		return *k, nil
	}
	return nil, fmt.Errorf("unsupported public key type %T", raw)
}

// defaultAlgorithm picks the algorithm for keys published without "alg".
func defaultAlgorithm(publicKey crypto.PublicKey) jwa.SignatureAlgorithm {
	switch k := publicKey.(type) {
	case *rsa.PublicKey:
		return jwa.RS256
	case *ecdsa.PublicKey:
		switch k.Curve.Params().Name {
		case "P-256":
			return jwa.ES256
		case "P-384":
			return jwa.ES384
		case "P-521":
			return jwa.ES512
		}
	case ed25519.PublicKey:
		return jwa.EdDSA
	}
	return ""
}

func algorithmFits(alg jwa.SignatureAlgorithm, publicKey crypto.PublicKey) bool {
	switch k := publicKey.(type) {
	case *rsa.PublicKey:
		switch alg {
		case jwa.RS256, jwa.RS384, jwa.RS512, jwa.PS256, jwa.PS384, jwa.PS512:
			return true
		}
	case *ecdsa.PublicKey:
		return alg != "" && alg == defaultAlgorithm(k)
	case ed25519.PublicKey:
		return alg == jwa.EdDSA
	}
	return false
}

func indexKeys(keys []SigningKey) map[string]SigningKey {
	byID := make(map[string]SigningKey, len(keys))
	for _, key := range keys {
		if _, dup := byID[key.KeyID]; dup {
			continue
		}
		byID[key.KeyID] = key
	}
	return byID
}
