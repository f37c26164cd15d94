package oidc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCognitoIssuerURL(t *testing.T) {
	testCases := []struct {
		name       string
		region     string
		userPoolID string
		want       string
		wantErr    error
	}{
		{
			name:       "it builds the issuer of a user pool",
			region:     "ap-northeast-1",
			userPoolID: "ap-northeast-1_AbC123xyZ",
			want:       "https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_AbC123xyZ",
		},
		{
			name:       "it accepts multi-part regions",
			region:     "us-gov-west-1",
			userPoolID: "us-gov-west-1_pool",
			want:       "https://cognito-idp.us-gov-west-1.amazonaws.com/us-gov-west-1_pool",
		},
		{name: "it rejects an empty region", region: "", userPoolID: "ap-northeast-1_x", wantErr: ErrInvalidRegion},
		{name: "it rejects a region with a path", region: "ap-northeast-1/evil", userPoolID: "ap-northeast-1_x", wantErr: ErrInvalidRegion},
		{name: "it rejects a pool id without a region prefix", region: "ap-northeast-1", userPoolID: "AbC123", wantErr: ErrInvalidUserPoolID},
		{name: "it rejects a pool id from another region", region: "ap-northeast-1", userPoolID: "us-east-1_AbC123", wantErr: ErrInvalidUserPoolID},
		{name: "it rejects a pool id with a path", region: "ap-northeast-1", userPoolID: "ap-northeast-1_x/../y", wantErr: ErrInvalidUserPoolID},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := CognitoIssuerURL(testCase.region, testCase.userPoolID)
			if testCase.wantErr != nil {
				assert.ErrorIs(t, err, testCase.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestJWKSURL(t *testing.T) {
	testCases := []struct {
		name    string
		issuer  string
		want    string
		wantErr bool
	}{
		{
			name:   "it appends the well-known path",
			issuer: "https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_example",
			want:   "https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_example/.well-known/jwks.json",
		},
		{
			name:   "it drops a trailing slash",
			issuer: "https://auth.example.com/",
			want:   "https://auth.example.com/.well-known/jwks.json",
		},
		{name: "it rejects a relative issuer", issuer: "auth.example.com", wantErr: true},
		{name: "it rejects an unparsable issuer", issuer: "://bad", wantErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := JWKSURL(testCase.issuer)
			if testCase.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestGetWellKnownEndpointsFromIssuerURL(t *testing.T) {
	testCases := []struct {
		name         string
		responseCode int
		// {{server}} in body is replaced with the test server URL.
		body        string
		issuerPath  string
		wantJWKSURI string
		wantErr     error
		wantErrText string
	}{
		{
			name:         "it returns the jwks_uri",
			responseCode: http.StatusOK,
			body:         `{"issuer":"{{server}}","jwks_uri":"{{server}}/keys"}`,
			wantJWKSURI:  "/keys",
		},
		{
			name:         "it tolerates a trailing slash on the issuer",
			responseCode: http.StatusOK,
			body:         `{"issuer":"{{server}}/","jwks_uri":"{{server}}/keys"}`,
			wantJWKSURI:  "/keys",
		},
		{
			name:         "it rejects a document for another issuer",
			responseCode: http.StatusOK,
			body:         `{"issuer":"https://evil.example.com","jwks_uri":"https://evil.example.com/keys"}`,
			wantErr:      ErrIssuerMismatch,
		},
		{
			name:         "it rejects a document without jwks_uri",
			responseCode: http.StatusOK,
			body:         `{"issuer":"{{server}}"}`,
			wantErr:      ErrMissingJWKSURI,
		},
		{
			name:         "it rejects a non-200 response",
			responseCode: http.StatusNotFound,
			body:         `{"error":"not found"}`,
			wantErrText:  "unexpected status code 404",
		},
		{
			name:         "it rejects malformed JSON",
			responseCode: http.StatusOK,
			body:         `{"jwks_uri":`,
			wantErrText:  "could not decode json body",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var server *httptest.Server
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/.well-known/openid-configuration" {
					http.NotFound(w, r)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(testCase.responseCode)
				_, _ = io.WriteString(w, strings.ReplaceAll(testCase.body, "{{server}}", server.URL))
			}))
			t.Cleanup(server.Close)

			endpoints, err := GetWellKnownEndpointsFromIssuerURL(context.Background(), server.Client(), server.URL)

			switch {
			case testCase.wantErr != nil:
				assert.ErrorIs(t, err, testCase.wantErr)
			case testCase.wantErrText != "":
				assert.ErrorContains(t, err, testCase.wantErrText)
			default:
				require.NoError(t, err)
				assert.Equal(t, server.URL+testCase.wantJWKSURI, endpoints.JWKSURI)
			}
		})
	}

	t.Run("it honors context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := GetWellKnownEndpointsFromIssuerURL(ctx, nil, "https://auth.example.com")

		assert.ErrorIs(t, err, context.Canceled)
	})
}
