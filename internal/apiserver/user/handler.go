package user

import (
	"encoding/json"
	"log"
	"net/http"

	"biovault/internal/shared/apperr"
	"biovault/internal/shared/model"
)

// Handler 用户 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册用户相关路由
// 字面量路径 /api/users/login、/api/users/protected-data 优先于 {address} 通配
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users/{address}", h.Get)
	mux.HandleFunc("POST /api/users", h.Register)
	mux.HandleFunc("POST /api/users/login", h.Login)
}

// RegisterRequest 注册请求体
type RegisterRequest struct {
	WalletAddress string `json:"walletAddress"`
	Role          string `json:"role"`
}

// LoginRequest 登录请求体
type LoginRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// RegisterResponse 注册响应：用户记录 + 令牌
type RegisterResponse struct {
	*model.User
	Token string `json:"token"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	ID            string         `json:"_id"`
	WalletAddress string         `json:"walletAddress"`
	Role          model.UserRole `json:"role"`
	Token         string         `json:"token"`
}

// Get 按钱包地址查询用户
// GET /api/users/{address}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Lookup(r.Context(), r.PathValue("address"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Register 注册钱包用户
// POST /api/users
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, r, apperr.Validation(MsgMissingRegister))
		return
	}

	u, token, err := h.svc.Register(r.Context(), req.WalletAddress, req.Role)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{User: u, Token: token})
}

// Login 钱包登录
// POST /api/users/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, r, apperr.Validation(MsgMissingLogin))
		return
	}

	u, token, err := h.svc.Login(r.Context(), req.WalletAddress)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		ID:            u.ID,
		WalletAddress: u.WalletAddress,
		Role:          u.Role,
		Token:         token,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeAppError 按错误类别写响应，内部错误只记录日志不外泄
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		log.Printf("[user.error] method=%s path=%s error=%v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, apperr.Status(err), map[string]string{"message": apperr.PublicMessage(err)})
}
