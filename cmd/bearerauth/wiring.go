package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lpforge/bearerauth"
	"github.com/lpforge/bearerauth/internal/config"
	"github.com/lpforge/bearerauth/jwks"
	"github.com/lpforge/bearerauth/validator"
)

// stack is the verification pipeline built from a Config.
type stack struct {
	cache     *jwks.Cache
	validator *validator.Validator
	metrics   *bearerauth.PrometheusMetrics
	registry  *prometheus.Registry
	logger    bearerauth.Logger
	redis     *redis.Client
}

func newStack(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*stack, error) {
	logger := bearerauth.NewLogrusLogger(log)
	httpClient := &http.Client{Timeout: cfg.FetchTimeout}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := bearerauth.NewPrometheusMetrics(registry)
	if err != nil {
		return nil, err
	}

	issuer, err := cfg.Issuer()
	if err != nil {
		return nil, err
	}
	endpoint, err := cfg.JWKSEndpoint(ctx, httpClient)
	if err != nil {
		return nil, err
	}

	s := &stack{metrics: metrics, registry: registry, logger: logger}

	httpFetcher, err := jwks.NewHTTPFetcher(jwks.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	var fetcher jwks.Fetcher = httpFetcher
	if cfg.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		fetcher, err = jwks.NewRedisFetcher(s.redis, httpFetcher,
			jwks.WithRedisTTL(cfg.RedisTTL),
			jwks.WithRedisLogger(logger))
		if err != nil {
			return nil, err
		}
	}

	s.cache, err = jwks.NewCache(endpoint,
		jwks.WithFetcher(fetcher),
		jwks.WithCacheTTL(cfg.CacheTTL),
		jwks.WithFetchTimeout(cfg.FetchTimeout),
		jwks.WithMinRefreshInterval(cfg.MinRefreshInterval),
		jwks.WithRetryInterval(cfg.RefreshRetryInterval),
		jwks.WithLogger(logger),
		jwks.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("could not set up JWKS cache: %w", err)
	}

	resolver, err := jwks.NewResolver(s.cache,
		jwks.WithMaxForcedRefreshes(cfg.MaxForcedRefreshes),
		jwks.WithUnknownKeyTTL(cfg.UnknownKeyTTL),
		jwks.WithResolverLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("could not set up key resolver: %w", err)
	}

	opts := []validator.Option{
		validator.WithKeyResolver(resolver),
		validator.WithIssuer(issuer),
		validator.WithAllowedClockSkew(cfg.ClockSkew),
	}
	if len(cfg.Audience) > 0 {
		opts = append(opts, validator.WithAudiences(cfg.Audience))
	}
	if cfg.TokenUse != "" {
		opts = append(opts, validator.WithTokenUse(cfg.TokenUse))
	}
	s.validator, err = validator.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("could not set up validator: %w", err)
	}

	log.WithFields(logrus.Fields{
		"issuer": issuer,
		"jwks":   endpoint,
		"redis":  cfg.RedisAddr != "",
	}).Info("verification pipeline ready")

	return s, nil
}

func (s *stack) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
