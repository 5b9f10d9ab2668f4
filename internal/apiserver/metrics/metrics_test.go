package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/api/users/0xABC", "/api/users/{address}"},
		{"/api/users/login", "/api/users/login"},
		{"/api/users/protected-data", "/api/users/protected-data"},
		{"/api/users/", "/api/users"},
		{"/api/users", "/api/users"},
		{"/health", "/health"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePath(tt.in), tt.in)
	}
}

func TestMiddleware_RecordsStatus(t *testing.T) {
	m := New("biovault", prometheus.NewRegistry())
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users/0xDEF", nil))

	got := counterValue(t, m.HTTPRequestsTotal.WithLabelValues("GET", "/api/users/{address}", "404"))
	assert.Equal(t, 1.0, got)
}

func TestRecorders(t *testing.T) {
	m := New("biovault", prometheus.NewRegistry())
	m.RecordRegistration("patient")
	m.RecordLogin(LoginNotFound)
	m.RecordAuthRejection(RejectForbidden)
	m.RecordCache(CacheHit)

	assert.Equal(t, 1.0, counterValue(t, m.RegistrationsTotal.WithLabelValues("patient")))
	assert.Equal(t, 1.0, counterValue(t, m.LoginsTotal.WithLabelValues(LoginNotFound)))
	assert.Equal(t, 1.0, counterValue(t, m.AuthRejectionsTotal.WithLabelValues(RejectForbidden)))
	assert.Equal(t, 1.0, counterValue(t, m.UserCacheTotal.WithLabelValues(CacheHit)))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRegistration("patient")
		m.RecordLogin(LoginSuccess)
		m.RecordAuthRejection(RejectNoToken)
		m.RecordCache(CacheMiss)
	})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New("biovault", prometheus.NewRegistry())
	m.RecordLogin(LoginSuccess)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), `biovault_logins_total{result="success"} 1`))
}
