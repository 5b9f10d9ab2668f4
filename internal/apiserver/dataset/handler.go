package dataset

import (
	"encoding/json"
	"log"
	"net/http"

	"biovault/internal/shared/apperr"
	"biovault/internal/shared/model"
)

// Handler 数据集 HTTP 处理器
type Handler struct {
	lister Lister
}

// NewHandler 创建处理器
func NewHandler(lister Lister) *Handler {
	return &Handler{lister: lister}
}

// List 列出受保护数据集
// GET /api/users/protected-data（需 researcher 角色）
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.lister.List(r.Context())
	if err != nil {
		log.Printf("[dataset.list.failed] error=%v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": apperr.InternalMessage})
		return
	}
	if items == nil {
		items = []model.Dataset{}
	}
	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
