package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"biovault/internal/apiserver/metrics"
	"biovault/internal/shared/apperr"
	"biovault/pkg/logging"
)

// 鉴权失败响应文本
const (
	MsgNoToken     = "Not authorized, no token"
	MsgTokenFailed = "Not authorized, token failed"
)

// Gatekeeper 授权闸门：先认证（401）再校验角色（403），不修改任何状态
type Gatekeeper struct {
	issuer  *Issuer
	metrics *metrics.Metrics
}

// NewGatekeeper 创建授权闸门，m 可为 nil
func NewGatekeeper(issuer *Issuer, m *metrics.Metrics) *Gatekeeper {
	return &Gatekeeper{issuer: issuer, metrics: m}
}

// Authenticate 校验 Bearer 令牌并将 AuthUser 注入 context
func (g *Gatekeeper) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			g.metrics.RecordAuthRejection(metrics.RejectNoToken)
			writeError(w, apperr.Unauthorized(MsgNoToken, nil))
			return
		}

		claims, err := g.issuer.Parse(token)
		if err != nil {
			log.Printf("[auth] token parse error: %v", err)
			g.metrics.RecordAuthRejection(metrics.RejectTokenFailed)
			writeError(w, apperr.Unauthorized(MsgTokenFailed, err))
			return
		}

		ctx := WithAuthUser(r.Context(), &AuthUser{ID: claims.UserID, Role: claims.Role})
		ctx = logging.WithValue(ctx, logging.UserIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole 要求 context 中的用户角色与 role 一致，否则 403
func (g *Gatekeeper) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetAuthUser(r.Context())
			if user == nil {
				g.metrics.RecordAuthRejection(metrics.RejectNoToken)
				writeError(w, apperr.Unauthorized(MsgNoToken, nil))
				return
			}
			if user.Role != role {
				g.metrics.RecordAuthRejection(metrics.RejectForbidden)
				writeError(w, apperr.Forbidden("Forbidden: "+role+" role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Gate 依次组合 Authenticate 与 RequireRole
func (g *Gatekeeper) Gate(role string, next http.Handler) http.Handler {
	return g.Authenticate(g.RequireRole(role)(next))
}

// bearerToken 提取 "Authorization: Bearer <token>"
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// writeError 按 apperr 分类输出 {"message": ...}，底层错误不外泄
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.Status(err))
	json.NewEncoder(w).Encode(map[string]string{"message": apperr.PublicMessage(err)})
}
