package bearerauth

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lpforge/bearerauth/core"
)

func TestDefaultErrorHandler(t *testing.T) {
	tests := []struct {
		name                string
		err                 error
		wantStatus          int
		wantBody            string
		wantWWWAuthenticate string
		wantRetryAfter      string
	}{
		{
			name:                "missing token",
			err:                 core.Rejected(core.ReasonTokenMissing, nil).Err(),
			wantStatus:          http.StatusUnauthorized,
			wantBody:            `{"message":"authentication failed"}`,
			wantWWWAuthenticate: "Bearer",
		},
		{
			name:                "bare ErrJWTMissing",
			err:                 core.ErrJWTMissing,
			wantStatus:          http.StatusUnauthorized,
			wantBody:            `{"message":"authentication failed"}`,
			wantWWWAuthenticate: "Bearer",
		},
		{
			name:                "expired token",
			err:                 core.NewValidationError(core.ReasonExpired, "token expired", nil),
			wantStatus:          http.StatusUnauthorized,
			wantBody:            `{"message":"authentication failed"}`,
			wantWWWAuthenticate: `Bearer error="invalid_token"`,
		},
		{
			name:                "algorithm mismatch",
			err:                 core.Rejected(core.ReasonAlgorithmMismatch, errors.New(`token declares "none"`)).Err(),
			wantStatus:          http.StatusUnauthorized,
			wantBody:            `{"message":"authentication failed"}`,
			wantWWWAuthenticate: `Bearer error="invalid_token"`,
		},
		{
			name:                "wrapped invalid token",
			err:                 fmt.Errorf("grpc gateway: %w", core.NewValidationError(core.ReasonInvalidSignature, "bad signature", nil)),
			wantStatus:          http.StatusUnauthorized,
			wantBody:            `{"message":"authentication failed"}`,
			wantWWWAuthenticate: `Bearer error="invalid_token"`,
		},
		{
			name:           "key source unavailable",
			err:            core.NewValidationError(core.ReasonKeySourceUnavailable, "keys unavailable", nil),
			wantStatus:     http.StatusServiceUnavailable,
			wantBody:       `{"message":"authentication temporarily unavailable"}`,
			wantRetryAfter: "10",
		},
		{
			name:       "unexpected error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"something went wrong while authenticating the request"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			DefaultErrorHandler(w, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.wantBody, w.Body.String())
			assert.Equal(t, tc.wantWWWAuthenticate, w.Header().Get("WWW-Authenticate"))
			assert.Equal(t, tc.wantRetryAfter, w.Header().Get("Retry-After"))
		})
	}
}

func TestNewErrorHandler(t *testing.T) {
	handler := NewErrorHandler(90 * time.Second)

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil),
		core.NewValidationError(core.ReasonKeySourceUnavailable, "keys unavailable", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "90", w.Header().Get("Retry-After"))
}
