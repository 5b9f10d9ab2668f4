package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerClient(t *testing.T) {
	l := NewRateLimiter(1, 2, false)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// 其他客户端独立计数
	assert.True(t, l.Allow("10.0.0.2"))

	// 1 rps：一秒后补充一个令牌
	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestRateLimiter_Defaults(t *testing.T) {
	l := NewRateLimiter(0, 0, false)
	assert.EqualValues(t, 5, l.limit)
	assert.Equal(t, 10, l.burst)
}

func TestRateLimiter_Sweep(t *testing.T) {
	l := NewRateLimiter(1, 1, false)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("idle")
	now = now.Add(limiterIdleTTL + time.Second)
	l.Allow("active")
	l.sweep(now)

	assert.NotContains(t, l.clients, "idle")
	assert.Contains(t, l.clients, "active")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		trust     bool
		forwarded string
		remote    string
		want      string
	}{
		{"remote addr", false, "", "192.168.1.5:4321", "192.168.1.5"},
		{"forwarded ignored by default", false, "203.0.113.7, 10.0.0.1", "10.0.0.1:80", "10.0.0.1"},
		{"forwarded first hop when trusted", true, "203.0.113.7, 10.0.0.1", "10.0.0.1:80", "203.0.113.7"},
		{"trusted without header", true, "", "10.0.0.1:80", "10.0.0.1"},
		{"remote without port", false, "", "192.168.1.5", "192.168.1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/users", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientIP(req, tt.trust))
		})
	}
}

// 同一连接地址轮换 X-Forwarded-For 不能绕过限流
func TestMiddleware_RotatingForwardedHeader(t *testing.T) {
	l := NewRateLimiter(0.001, 2, false)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	limited := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
		req.RemoteAddr = "198.51.100.9:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 48, limited)
}

// 信任代理时按转发的第一跳分别计数
func TestMiddleware_TrustedForwardedHeader(t *testing.T) {
	l := NewRateLimiter(0.001, 1, true)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
		req.RemoteAddr = "10.0.0.1:80"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.1"))
	assert.Equal(t, http.StatusOK, send("203.0.113.2, 10.0.0.1"))
}
