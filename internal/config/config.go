// Package config reads the CLI's settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/lpforge/bearerauth/internal/oidc"
	"github.com/lpforge/bearerauth/validator"
)

// Config holds every setting of the CLI. Defaults are provided via struct
// tags.
type Config struct {
	// CognitoRegion and CognitoUserPoolID derive the issuer and JWKS URL of
	// a Cognito user pool. ENV: COGNITO_REGION, COGNITO_USER_POOL_ID
	CognitoRegion     string `env:"COGNITO_REGION"`
	CognitoUserPoolID string `env:"COGNITO_USER_POOL_ID"`

	// IssuerURL is used for non-Cognito providers. ENV: AUTH_ISSUER_URL
	IssuerURL string `env:"AUTH_ISSUER_URL"`
	// JWKSURL overrides the derived JWKS location. ENV: AUTH_JWKS_URL
	JWKSURL string `env:"AUTH_JWKS_URL"`
	// OIDCDiscovery looks the JWKS location up in the issuer's discovery
	// document. ENV: AUTH_OIDC_DISCOVERY
	OIDCDiscovery bool `env:"AUTH_OIDC_DISCOVERY,default=false"`

	// Audience lists accepted client ids, separated by ";". ENV: AUTH_AUDIENCE
	Audience []string `env:"AUTH_AUDIENCE"`
	// TokenUse is "id", "access" or empty. ENV: AUTH_TOKEN_USE
	TokenUse  string        `env:"AUTH_TOKEN_USE"`
	ClockSkew time.Duration `env:"AUTH_CLOCK_SKEW,default=0s"`

	CacheTTL             time.Duration `env:"JWKS_CACHE_TTL,default=1h"`
	FetchTimeout         time.Duration `env:"JWKS_FETCH_TIMEOUT,default=10s"`
	MinRefreshInterval   time.Duration `env:"JWKS_MIN_REFRESH_INTERVAL,default=0s"`
	RefreshRetryInterval time.Duration `env:"JWKS_REFRESH_RETRY_INTERVAL,default=10s"`
	MaxForcedRefreshes   int           `env:"JWKS_MAX_FORCED_REFRESHES,default=1"`
	UnknownKeyTTL        time.Duration `env:"JWKS_UNKNOWN_KEY_TTL,default=1m"`

	// RedisAddr enables sharing the JWKS document through Redis.
	// ENV: JWKS_REDIS_ADDR
	RedisAddr string        `env:"JWKS_REDIS_ADDR"`
	RedisTTL  time.Duration `env:"JWKS_REDIS_TTL,default=15m"`

	ListenAddr string `env:"LISTEN_ADDR,default=:8080"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`
}

// Load decodes the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("could not decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the settings are consistent.
func (c Config) Validate() error {
	var errs []error

	cognito := c.CognitoRegion != "" || c.CognitoUserPoolID != ""
	switch {
	case cognito && c.IssuerURL != "":
		errs = append(errs, errors.New("set either COGNITO_REGION/COGNITO_USER_POOL_ID or AUTH_ISSUER_URL, not both"))
	case cognito && (c.CognitoRegion == "" || c.CognitoUserPoolID == ""):
		errs = append(errs, errors.New("COGNITO_REGION and COGNITO_USER_POOL_ID must be set together"))
	case !cognito && c.IssuerURL == "":
		errs = append(errs, errors.New("an issuer is required: set COGNITO_REGION and COGNITO_USER_POOL_ID, or AUTH_ISSUER_URL"))
	}
	if cognito && c.CognitoRegion != "" && c.CognitoUserPoolID != "" {
		if _, err := oidc.CognitoIssuerURL(c.CognitoRegion, c.CognitoUserPoolID); err != nil {
			errs = append(errs, err)
		}
	}
	if c.OIDCDiscovery && c.JWKSURL != "" {
		errs = append(errs, errors.New("AUTH_OIDC_DISCOVERY and AUTH_JWKS_URL are mutually exclusive"))
	}

	switch c.TokenUse {
	case "", validator.TokenUseID, validator.TokenUseAccess:
	default:
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_USE must be %q or %q, got %q", validator.TokenUseID, validator.TokenUseAccess, c.TokenUse))
	}

	if c.ClockSkew < 0 {
		errs = append(errs, errors.New("AUTH_CLOCK_SKEW cannot be negative"))
	}
	for name, d := range map[string]time.Duration{
		"JWKS_CACHE_TTL":     c.CacheTTL,
		"JWKS_FETCH_TIMEOUT": c.FetchTimeout,
		"JWKS_REDIS_TTL":     c.RedisTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	for name, d := range map[string]time.Duration{
		"JWKS_MIN_REFRESH_INTERVAL":   c.MinRefreshInterval,
		"JWKS_REFRESH_RETRY_INTERVAL": c.RefreshRetryInterval,
		"JWKS_UNKNOWN_KEY_TTL":        c.UnknownKeyTTL,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s cannot be negative", name))
		}
	}
	if c.MaxForcedRefreshes < 0 {
		errs = append(errs, errors.New("JWKS_MAX_FORCED_REFRESHES cannot be negative"))
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Issuer returns the expected iss claim.
func (c Config) Issuer() (string, error) {
	if c.IssuerURL != "" {
		return c.IssuerURL, nil
	}
	return oidc.CognitoIssuerURL(c.CognitoRegion, c.CognitoUserPoolID)
}

// JWKSEndpoint returns where the signing keys are published: the explicit
// URL, the jwks_uri of the issuer's discovery document, or the conventional
// location under the issuer.
func (c Config) JWKSEndpoint(ctx context.Context, client *http.Client) (string, error) {
	if c.JWKSURL != "" {
		return c.JWKSURL, nil
	}

	issuer, err := c.Issuer()
	if err != nil {
		return "", err
	}

	if c.OIDCDiscovery {
		endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, client, issuer)
		if err != nil {
			return "", fmt.Errorf("OIDC discovery failed: %w", err)
		}
		return endpoints.JWKSURI, nil
	}

	return oidc.JWKSURL(issuer)
}
