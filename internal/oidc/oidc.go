package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// maxDiscoveryBytes bounds the discovery document read from the issuer.
const maxDiscoveryBytes = 1 << 20

var (
	// ErrInvalidRegion is returned for a region that is not of the form
	// "ap-northeast-1".
	ErrInvalidRegion = errors.New("invalid AWS region")

	// ErrInvalidUserPoolID is returned for a pool id that is not of the form
	// "<region>_<id>".
	ErrInvalidUserPoolID = errors.New("invalid Cognito user pool id")

	// ErrIssuerMismatch is returned when the discovery document names a
	// different issuer than the one it was fetched for.
	ErrIssuerMismatch = errors.New("discovery document issuer does not match")

	// ErrMissingJWKSURI is returned when the discovery document has no jwks_uri.
	ErrMissingJWKSURI = errors.New("discovery document has no jwks_uri")
)

var (
	regionPattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d$`)
	poolIDPattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d_[0-9A-Za-z]+$`)
)

// WellKnownEndpoints holds the fields of the discovery document used here.
type WellKnownEndpoints struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// CognitoIssuerURL returns the issuer of tokens minted by a Cognito user pool.
func CognitoIssuerURL(region, userPoolID string) (string, error) {
	if !regionPattern.MatchString(region) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRegion, region)
	}
	if !poolIDPattern.MatchString(userPoolID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserPoolID, userPoolID)
	}
	if !strings.HasPrefix(userPoolID, region+"_") {
		return "", fmt.Errorf("%w: %q does not belong to region %q", ErrInvalidUserPoolID, userPoolID, region)
	}
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID), nil
}

// JWKSURL returns the conventional JWKS location under issuer, as published
// by Cognito.
func JWKSURL(issuer string) (string, error) {
	u, err := url.Parse(issuer)
	if err != nil {
		return "", fmt.Errorf("could not parse issuer URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("issuer URL %q must be absolute", issuer)
	}
	return strings.TrimSuffix(u.String(), "/") + "/.well-known/jwks.json", nil
}

// GetWellKnownEndpointsFromIssuerURL fetches the OpenID discovery document
// of issuer and checks that it describes the same issuer.
func GetWellKnownEndpointsFromIssuerURL(ctx context.Context, client *http.Client, issuer string) (*WellKnownEndpoints, error) {
	if client == nil {
		client = http.DefaultClient
	}

	discoveryURL := strings.TrimSuffix(issuer, "/") + "/.well-known/openid-configuration"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request to get well known endpoints: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not get well known endpoints from url %s: %w", discoveryURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, discoveryURL)
	}

	var endpoints WellKnownEndpoints
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDiscoveryBytes)).Decode(&endpoints); err != nil {
		return nil, fmt.Errorf("could not decode json body when getting well known endpoints: %w", err)
	}

	if strings.TrimSuffix(endpoints.Issuer, "/") != strings.TrimSuffix(issuer, "/") {
		return nil, fmt.Errorf("%w: want %q, got %q", ErrIssuerMismatch, issuer, endpoints.Issuer)
	}
	if endpoints.JWKSURI == "" {
		return nil, ErrMissingJWKSURI
	}

	return &endpoints, nil
}
