package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"biovault/internal/apiserver/metrics"
	"biovault/internal/shared/apperr"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"lowercase scheme", "bearer abc", "abc", true},
		{"missing", "", "", false},
		{"no scheme", "abc.def.ghi", "", false},
		{"basic scheme", "Basic dXNlcjpwYXNz", "", false},
		{"empty token", "Bearer ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, ok := bearerToken(r)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGate(t *testing.T) {
	iss := newTestIssuer(t)
	m := metrics.New("test", prometheus.NewRegistry())
	g := NewGatekeeper(iss, m)

	researcher, err := iss.Issue("u-r", "researcher")
	require.NoError(t, err)
	patient, err := iss.Issue("u-p", "patient")
	require.NoError(t, err)

	expiredIssuer := newTestIssuer(t)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-60 * 24 * time.Hour) }
	expired, err := expiredIssuer.Issue("u-r", "researcher")
	require.NoError(t, err)

	var calls int
	var seen *AuthUser
	protected := g.Gate("researcher", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		seen = GetAuthUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"no token", "", http.StatusUnauthorized, MsgNoToken},
		{"malformed header", "Token " + researcher, http.StatusUnauthorized, MsgNoToken},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized, MsgTokenFailed},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, MsgTokenFailed},
		{"wrong role", "Bearer " + patient, http.StatusForbidden, "Forbidden: researcher role required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/users/protected-data", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.NotContains(t, w.Body.String(), "malformed", "token parse detail must not leak")
		})
	}
	assert.Zero(t, calls, "protected handler must not run on rejection")

	r := httptest.NewRequest(http.MethodGet, "/api/users/protected-data", nil)
	r.Header.Set("Authorization", "Bearer "+researcher)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
	require.NotNil(t, seen)
	assert.Equal(t, &AuthUser{ID: "u-r", Role: "researcher"}, seen)
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	g := NewGatekeeper(newTestIssuer(t), nil)
	h := g.RequireRole("researcher")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not be called")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"unauthorized hides cause", apperr.Unauthorized(MsgTokenFailed, errors.New("token is malformed")), http.StatusUnauthorized, MsgTokenFailed},
		{"forbidden", apperr.Forbidden("Forbidden: researcher role required"), http.StatusForbidden, "Forbidden: researcher role required"},
		{"plain error is internal", errors.New("boom"), http.StatusInternalServerError, apperr.InternalMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, map[string]string{"message": tt.wantMsg}, body)
		})
	}
}
