package style

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/lumina-interior/backend/internal/model/style"
	"github.com/zhouzirui/lumina-interior/backend/pkg/utils"
)

// Handler 风格目录的HTTP处理器
type Handler struct {
	styles style.Store
}

// New 创建风格处理器
func New(styles style.Store) *Handler {
	return &Handler{
		styles: styles,
	}
}

// RegisterRoutes 注册风格相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/styles", h.handleListStyles)
}

// handleListStyles 列出所有风格
func (h *Handler) handleListStyles(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.styles.List())
}
