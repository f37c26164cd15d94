package validator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lestrrat-go/jwx/v2/jws"

	"github.com/lpforge/bearerauth/core"
	"github.com/lpforge/bearerauth/jwks"
)

// Cognito token_use values accepted by WithTokenUse.
const (
	TokenUseID     = "id"
	TokenUseAccess = "access"
)

// KeyResolver maps a kid to a signing key. *jwks.Resolver implements it.
// Errors should match jwks.ErrUnknownKey or jwks.ErrKeySourceUnavailable.
type KeyResolver interface {
	Resolve(ctx context.Context, kid string) (jwks.SigningKey, error)
}

// ClaimsValidator runs after the standard claims passed. A non-nil error
// rejects the token as a claim mismatch.
type ClaimsValidator func(claims core.Claims) error

// Validator verifies compact JWS bearer tokens against keys from a
// KeyResolver. It is immutable after New and safe for concurrent use.
type Validator struct {
	resolver         KeyResolver     // Required.
	issuer           string          // Optional.
	audiences        []string        // Optional.
	tokenUse         string          // Optional.
	claimsValidator  ClaimsValidator // Optional.
	allowedClockSkew time.Duration   // Optional.
	now              func() time.Time
}

// New creates a Validator. WithKeyResolver is required.
//
// Example:
//
//	v, err := validator.New(
//	    validator.WithKeyResolver(resolver),
//	    validator.WithIssuer("https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_example"),
//	    validator.WithAudience("3n4b5urk1ft4fl3mg5e62d9ado"),
//	    validator.WithTokenUse(validator.TokenUseID),
//	)
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		now: time.Now,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if v.resolver == nil {
		return nil, errors.New("key resolver is required (use WithKeyResolver)")
	}

	return v, nil
}

// ValidateToken decodes token, resolves its signing key and verifies it.
// Each step that fails short-circuits to a rejection with that step's
// reason; claims are never inspected before the signature checks out.
func (v *Validator) ValidateToken(ctx context.Context, token string) core.Outcome {
	decoded, err := Decode(token)
	if err != nil {
		return core.Rejected(core.ReasonMalformedToken, err)
	}

	key, err := v.resolver.Resolve(ctx, decoded.KeyID)
	if err != nil {
		if errors.Is(err, jwks.ErrUnknownKey) {
			return core.Rejected(core.ReasonUnknownKey, err)
		}
		return core.Rejected(core.ReasonKeySourceUnavailable, err)
	}

	return v.Verify(decoded, key)
}

// Verify checks decoded against key. The algorithm comes from the key; a
// token declaring any other algorithm, including "none" or an HMAC
// algorithm, is rejected before the signature is looked at.
func (v *Validator) Verify(decoded *DecodedToken, key jwks.SigningKey) core.Outcome {
	if decoded.Algorithm != key.Algorithm.String() {
		return core.Rejected(core.ReasonAlgorithmMismatch,
			fmt.Errorf("token declares %q but key %q is pinned to %q", decoded.Algorithm, key.KeyID, key.Algorithm))
	}

	verifier, err := jws.NewVerifier(key.Algorithm)
	if err != nil {
		return core.Rejected(core.ReasonAlgorithmMismatch, fmt.Errorf("unsupported algorithm %q: %w", key.Algorithm, err))
	}
	if err := verifier.Verify(decoded.SignedContent, decoded.Signature, key.PublicKey); err != nil {
		return core.Rejected(core.ReasonInvalidSignature, err)
	}

	return v.checkClaims(decoded.Claims)
}

func (v *Validator) checkClaims(claims core.Claims) core.Outcome {
	now := v.now()

	exp, ok, err := claims.Time("exp")
	if err != nil {
		return core.Rejected(core.ReasonExpired, err)
	}
	if !ok {
		return core.Rejected(core.ReasonExpired, errors.New("exp claim is missing"))
	}
	if !exp.After(now.Add(-v.allowedClockSkew)) {
		return core.Rejected(core.ReasonExpired, fmt.Errorf("token expired at %s", exp.UTC().Format(time.RFC3339)))
	}

	nbf, ok, err := claims.Time("nbf")
	if err != nil {
		return core.Rejected(core.ReasonNotYetValid, err)
	}
	if ok && nbf.After(now.Add(v.allowedClockSkew)) {
		return core.Rejected(core.ReasonNotYetValid, fmt.Errorf("token not valid before %s", nbf.UTC().Format(time.RFC3339)))
	}

	if v.issuer != "" && claims.Issuer() != v.issuer {
		return core.Rejected(core.ReasonClaimMismatch, fmt.Errorf("unexpected issuer %q", claims.Issuer()))
	}

	if len(v.audiences) > 0 && !v.audienceMatches(claims) {
		return core.Rejected(core.ReasonClaimMismatch, errors.New("no expected audience in aud or client_id"))
	}

	if v.tokenUse != "" {
		if use, _ := claims.StringValue("token_use"); use != v.tokenUse {
			return core.Rejected(core.ReasonClaimMismatch, fmt.Errorf("token_use is %q, expected %q", use, v.tokenUse))
		}
	}

	subject, ok := claims.StringValue("sub")
	if !ok || subject == "" {
		return core.Rejected(core.ReasonClaimMismatch, errors.New("sub claim must be a non-empty string"))
	}

	if v.claimsValidator != nil {
		if err := v.claimsValidator(claims); err != nil {
			return core.Rejected(core.ReasonClaimMismatch, err)
		}
	}

	return core.Authenticated(subject, claims)
}

// audienceMatches accepts aud (string or array) and, because Cognito access
// tokens carry no aud, the client_id claim.
func (v *Validator) audienceMatches(claims core.Claims) bool {
	candidates := claims.Audience()
	if clientID, ok := claims.StringValue("client_id"); ok {
		candidates = append(candidates, clientID)
	}

	for _, want := range v.audiences {
		if slices.Contains(candidates, want) {
			return true
		}
	}
	return false
}
