// Package server HTTP 服务组装
//
// 文件组织：
//   - common.go: Handler 定义、依赖注入、健康检查
//   - handler.go: 路由与中间件链
//   - ratelimit.go: 写接口按客户端 IP 限流
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"biovault/internal/apiserver/auth"
	"biovault/internal/apiserver/dataset"
	"biovault/internal/apiserver/metrics"
	"biovault/internal/apiserver/user"
	"biovault/internal/shared/storage"
	"biovault/pkg/logging"
)

// healthTimeout 健康检查中存储 Ping 的超时
const healthTimeout = 2 * time.Second

// Deps Handler 依赖
type Deps struct {
	Store    storage.UserStore
	Users    *user.Service
	Datasets dataset.Lister
	Gate     *auth.Gatekeeper
	Metrics  *metrics.Metrics // 可为 nil
	Logger   *logging.Logger  // 默认 logging.Default("http")
	Limiter  *RateLimiter     // nil 表示不限流
	OpenAPI  *openapi3.T      // nil 表示不暴露文档
}

// Handler API 入口，负责路由分发与中间件组装
type Handler struct {
	store    storage.UserStore
	users    *user.Handler
	datasets *dataset.Handler
	gate     *auth.Gatekeeper
	metrics  *metrics.Metrics
	logger   *logging.Logger
	limiter  *RateLimiter
	openapi  *openapi3.T
}

// NewHandler 创建 Handler 实例
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = logging.Default("http")
	}
	if d.Datasets == nil {
		d.Datasets = dataset.MockLister{}
	}
	return &Handler{
		store:    d.Store,
		users:    user.NewHandler(d.Users),
		datasets: dataset.NewHandler(d.Datasets),
		gate:     d.Gate,
		metrics:  d.Metrics,
		logger:   d.Logger,
		limiter:  d.Limiter,
		openapi:  d.OpenAPI,
	}
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 存储不可达时返回 503，供负载均衡器摘除实例。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Warn("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// OpenAPI 返回 JSON 形式的接口文档
//
// 路由: GET /api/openapi.json
func (h *Handler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.openapi)
}
