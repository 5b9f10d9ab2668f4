package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"biovault/internal/shared/model"
	"biovault/pkg/logging"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查与运维:
//   - GET  /health            - 服务健康检查（含存储 Ping）
//   - GET  /metrics           - Prometheus 指标
//   - GET  /api/openapi.json  - OpenAPI 文档
//
// 用户 (User):
//   - GET  /api/users/{address}      - 按钱包地址查询
//   - POST /api/users                - 注册（限流）
//   - POST /api/users/login          - 登录（限流）
//   - GET  /api/users/protected-data - 数据集列表（researcher）
//
// 中间件顺序（外→内）：CORS → 访问日志 → 指标 → 限流 → 路由
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
	if h.openapi != nil {
		mux.HandleFunc("GET /api/openapi.json", h.OpenAPI)
	}

	h.users.RegisterRoutes(mux)
	mux.Handle("GET /api/users/protected-data",
		h.gate.Gate(string(model.UserRoleResearcher), http.HandlerFunc(h.datasets.List)))

	var handler http.Handler = mux
	handler = h.limiter.Middleware(handler)
	handler = h.metrics.Middleware(handler)
	handler = h.accessLog(handler)
	return corsMiddleware(handler)
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// accessLog 分配请求 ID 并记录访问日志
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.WithValue(r.Context(), logging.RequestIDKey, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		h.logger.WithContext(ctx).HTTPRequestLog(r.Method, r.URL.Path, rec.status, time.Since(start), clientIP(r, h.limiter.trustsForwarded()))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
