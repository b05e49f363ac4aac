// profile.go

package gateway

import (
	"net/http"

	"github.com/jacl-coder/SkyDuel-Server/internal/models"
	"github.com/jacl-coder/SkyDuel-Server/pkg/token"
)

// ProfileHandler 玩家资料处理器
type ProfileHandler struct {
	users  *models.UserStore
	tokens *token.Manager
}

// ProfileResponse 玩家资料响应
type ProfileResponse struct {
	User             *models.User             `json:"user"`
	OwnedAirplanes   []int                    `json:"owned_airplanes"`
	OwnedConsumables []models.OwnedConsumable `json:"owned_consumables"`
}

// NewProfileHandler 创建玩家资料处理器
func NewProfileHandler(users *models.UserStore, tokens *token.Manager) *ProfileHandler {
	return &ProfileHandler{
		users:  users,
		tokens: tokens,
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *ProfileHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/profile", h.handleProfile)
}

// handleProfile 查询当前玩家资料
func (h *ProfileHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	claims := authenticate(w, r, h.tokens)
	if claims == nil {
		return
	}

	user, err := h.users.LoadUser(claims.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "加载用户失败"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, APIResponse{Success: false, Message: "用户不存在"})
		return
	}

	airplanes, err := h.users.OwnedAirplanes(claims.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "查询战机失败"})
		return
	}

	consumables, err := h.users.OwnedConsumables(claims.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "查询消耗品失败"})
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ProfileResponse{
			User:             user,
			OwnedAirplanes:   airplanes,
			OwnedConsumables: consumables,
		},
	})
}
