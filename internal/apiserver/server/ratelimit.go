package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MsgTooManyRequests 限流响应
const MsgTooManyRequests = "Too many requests"

const (
	// limiterIdleTTL 客户端空闲超过该时长后回收其令牌桶
	limiterIdleTTL = 10 * time.Minute
	// limiterSweepSize 客户端数超过该值时触发回收
	limiterSweepSize = 10000
)

// RateLimiter 按客户端 IP 的令牌桶限流，只作用于 POST 请求
type RateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*client
	now     func() time.Time

	// trustForwarded 为 true 时按 X-Forwarded-For 第一跳计数，仅在可信反向代理之后开启
	trustForwarded bool
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter 创建限流器；rps<=0 或 burst<=0 时使用默认值 5/10
//
// trustForwarded 为 false 时只看连接的对端地址，客户端自带的 X-Forwarded-For 被忽略。
func NewRateLimiter(rps float64, burst int, trustForwarded bool) *RateLimiter {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*client),
		now:     time.Now,

		trustForwarded: trustForwarded,
	}
}

// Allow 判断 key 是否还有令牌
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= limiterSweepSize {
			l.sweep(now)
		}
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// sweep 回收空闲客户端，调用方持有锁
func (l *RateLimiter) sweep(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(l.clients, key)
		}
	}
}

// Middleware 对写接口限流；nil 接收者直接放行
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if ip := clientIP(r, l.trustForwarded); ip != "" && !l.Allow(ip) {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"message": MsgTooManyRequests})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// trustsForwarded nil 接收者视为不信任
func (l *RateLimiter) trustsForwarded() bool {
	return l != nil && l.trustForwarded
}

// clientIP 返回请求方 IP
//
// 默认取 RemoteAddr；trustForwarded 时取 X-Forwarded-For 的第一跳（由代理写入）。
func clientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			parts := strings.Split(forwarded, ",")
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
