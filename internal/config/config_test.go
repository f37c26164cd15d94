package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"COGNITO_REGION", "COGNITO_USER_POOL_ID", "AUTH_ISSUER_URL", "AUTH_JWKS_URL",
	"AUTH_OIDC_DISCOVERY", "AUTH_AUDIENCE", "AUTH_TOKEN_USE", "AUTH_CLOCK_SKEW",
	"JWKS_CACHE_TTL", "JWKS_FETCH_TIMEOUT", "JWKS_MIN_REFRESH_INTERVAL",
	"JWKS_REFRESH_RETRY_INTERVAL", "JWKS_MAX_FORCED_REFRESHES", "JWKS_UNKNOWN_KEY_TTL",
	"JWKS_REDIS_ADDR", "JWKS_REDIS_TTL", "LISTEN_ADDR", "LOG_LEVEL",
}

// setEnv clears every variable Config reads, then sets vars.
func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, name := range allVars {
		t.Setenv(name, "")
	}
	for name, value := range vars {
		t.Setenv(name, value)
	}
}

func validConfig() Config {
	return Config{
		CognitoRegion:        "ap-northeast-1",
		CognitoUserPoolID:    "ap-northeast-1_example",
		CacheTTL:             time.Hour,
		FetchTimeout:         10 * time.Second,
		MinRefreshInterval:   0,
		RefreshRetryInterval: 10 * time.Second,
		MaxForcedRefreshes:   1,
		UnknownKeyTTL:        time.Minute,
		RedisTTL:             15 * time.Minute,
		ListenAddr:           ":8080",
		LogLevel:             "info",
	}
}

func TestLoad(t *testing.T) {
	t.Run("it applies defaults", func(t *testing.T) {
		setEnv(t, map[string]string{
			"COGNITO_REGION":       "ap-northeast-1",
			"COGNITO_USER_POOL_ID": "ap-northeast-1_example",
		})

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, validConfig(), cfg)
	})

	t.Run("it reads overrides", func(t *testing.T) {
		setEnv(t, map[string]string{
			"AUTH_ISSUER_URL":           "https://auth.example.com",
			"AUTH_AUDIENCE":             "client-a;client-b",
			"AUTH_TOKEN_USE":            "access",
			"AUTH_CLOCK_SKEW":           "30s",
			"JWKS_CACHE_TTL":            "30m",
			"JWKS_MAX_FORCED_REFRESHES": "0",
			"JWKS_REDIS_ADDR":           "localhost:6379",
			"LOG_LEVEL":                 "debug",
		})

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "https://auth.example.com", cfg.IssuerURL)
		assert.Equal(t, []string{"client-a", "client-b"}, cfg.Audience)
		assert.Equal(t, "access", cfg.TokenUse)
		assert.Equal(t, 30*time.Second, cfg.ClockSkew)
		assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
		assert.Equal(t, 0, cfg.MaxForcedRefreshes)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("it rejects an unparsable duration", func(t *testing.T) {
		setEnv(t, map[string]string{
			"AUTH_ISSUER_URL": "https://auth.example.com",
			"JWKS_CACHE_TTL":  "an hour",
		})

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("it requires an issuer", func(t *testing.T) {
		setEnv(t, nil)

		_, err := Load()
		assert.ErrorContains(t, err, "an issuer is required")
	})
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "both issuer sources", mutate: func(c *Config) { c.IssuerURL = "https://auth.example.com" }, wantErr: "not both"},
		{name: "region without pool", mutate: func(c *Config) { c.CognitoUserPoolID = "" }, wantErr: "must be set together"},
		{name: "pool from another region", mutate: func(c *Config) { c.CognitoUserPoolID = "us-east-1_example" }, wantErr: "invalid Cognito user pool id"},
		{name: "discovery with explicit JWKS URL", mutate: func(c *Config) { c.OIDCDiscovery = true; c.JWKSURL = "https://keys.example.com" }, wantErr: "mutually exclusive"},
		{name: "unknown token use", mutate: func(c *Config) { c.TokenUse = "refresh" }, wantErr: "AUTH_TOKEN_USE"},
		{name: "negative skew", mutate: func(c *Config) { c.ClockSkew = -time.Second }, wantErr: "AUTH_CLOCK_SKEW"},
		{name: "zero cache TTL", mutate: func(c *Config) { c.CacheTTL = 0 }, wantErr: "JWKS_CACHE_TTL"},
		{name: "zero fetch timeout", mutate: func(c *Config) { c.FetchTimeout = 0 }, wantErr: "JWKS_FETCH_TIMEOUT"},
		{name: "negative retry interval", mutate: func(c *Config) { c.RefreshRetryInterval = -time.Second }, wantErr: "JWKS_REFRESH_RETRY_INTERVAL"},
		{name: "negative forced refreshes", mutate: func(c *Config) { c.MaxForcedRefreshes = -1 }, wantErr: "JWKS_MAX_FORCED_REFRESHES"},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "LOG_LEVEL"},
	}
	for _, testCase := range testCases {
		t.Run("it rejects "+testCase.name, func(t *testing.T) {
			cfg := validConfig()
			testCase.mutate(&cfg)

			err := cfg.Validate()
			assert.ErrorContains(t, err, testCase.wantErr)
		})
	}

	t.Run("it accepts a valid config", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})
}

func TestConfig_JWKSEndpoint(t *testing.T) {
	t.Run("it derives the Cognito location", func(t *testing.T) {
		endpoint, err := validConfig().JWKSEndpoint(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_example/.well-known/jwks.json", endpoint)
	})

	t.Run("it prefers an explicit URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWKSURL = "https://keys.example.com/jwks.json"

		endpoint, err := cfg.JWKSEndpoint(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "https://keys.example.com/jwks.json", endpoint)
	})

	t.Run("it uses OIDC discovery", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"issuer":"` + server.URL + `","jwks_uri":"` + server.URL + `/oauth/keys"}`))
		}))
		t.Cleanup(server.Close)

		cfg := validConfig()
		cfg.CognitoRegion, cfg.CognitoUserPoolID = "", ""
		cfg.IssuerURL = server.URL
		cfg.OIDCDiscovery = true

		endpoint, err := cfg.JWKSEndpoint(context.Background(), server.Client())
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/oauth/keys", endpoint)
	})
}
