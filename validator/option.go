package validator

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithKeyResolver sets the source of signing keys. This is a required option.
//
// For JWKS-based validation, pass a *jwks.Resolver.
func WithKeyResolver(resolver KeyResolver) Option {
	return func(v *Validator) error {
		if resolver == nil {
			return errors.New("key resolver cannot be nil")
		}
		v.resolver = resolver
		return nil
	}
}

// WithIssuer sets the expected issuer claim (iss). Without it the issuer is
// not checked.
func WithIssuer(issuerURL string) Option {
	return func(v *Validator) error {
		if issuerURL == "" {
			return errors.New("issuer cannot be empty")
		}
		u, err := url.Parse(issuerURL)
		if err != nil {
			return fmt.Errorf("invalid issuer URL: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid issuer URL %q: scheme and host are required", issuerURL)
		}
		v.issuer = issuerURL
		return nil
	}
}

// WithAudience sets a single expected audience. For Cognito this is the app
// client ID.
func WithAudience(audience string) Option {
	return func(v *Validator) error {
		if audience == "" {
			return errors.New("audience cannot be empty")
		}
		v.audiences = []string{audience}
		return nil
	}
}

// WithAudiences sets the accepted audiences. The token must carry at least
// one of them in aud or client_id.
func WithAudiences(audiences []string) Option {
	return func(v *Validator) error {
		if len(audiences) == 0 {
			return errors.New("audiences cannot be empty")
		}
		for i, aud := range audiences {
			if aud == "" {
				return fmt.Errorf("audience at index %d cannot be empty", i)
			}
		}
		v.audiences = append([]string(nil), audiences...)
		return nil
	}
}

// WithTokenUse requires Cognito's token_use claim to equal use, either
// TokenUseID or TokenUseAccess.
func WithTokenUse(use string) Option {
	return func(v *Validator) error {
		if use != TokenUseID && use != TokenUseAccess {
			return fmt.Errorf("token use must be %q or %q, got %q", TokenUseID, TokenUseAccess, use)
		}
		v.tokenUse = use
		return nil
	}
}

// WithAllowedClockSkew sets the tolerance applied to exp and nbf.
//
// If not set, the default is 0: a token is expired the instant exp is
// reached.
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}

// WithClaimsValidator adds an application check that runs after the
// standard claims passed.
func WithClaimsValidator(f ClaimsValidator) Option {
	return func(v *Validator) error {
		if f == nil {
			return errors.New("claims validator cannot be nil")
		}
		v.claimsValidator = f
		return nil
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		v.now = now
		return nil
	}
}
