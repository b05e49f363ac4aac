// leaderboard.go

package gateway

import (
	"log"
	"net/http"
	"strconv"

	"github.com/jacl-coder/SkyDuel-Server/internal/models"
)

// 排行榜单次查询的条目上限
const maxLeaderboardLimit = 100

// LeaderboardHandler 排行榜处理器
type LeaderboardHandler struct {
	boards *models.LeaderboardStore
	mirror *models.RedisLeaderboard
}

// NewLeaderboardHandler 创建排行榜处理器
func NewLeaderboardHandler(boards *models.LeaderboardStore, mirror *models.RedisLeaderboard) *LeaderboardHandler {
	return &LeaderboardHandler{
		boards: boards,
		mirror: mirror,
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *LeaderboardHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/leaderboard/periods", h.handlePeriods)
	mux.HandleFunc("/leaderboard/top", h.handleTop)
}

// handlePeriods 查询当前活跃的排行榜周期
func (h *LeaderboardHandler) handlePeriods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	periods, err := h.boards.ListActivePeriods()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "查询排行榜周期失败"})
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: periods})
}

// handleTop 查询指定周期的排行榜前N名，优先走Redis缓存
func (h *LeaderboardHandler) handleTop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	periodID := r.URL.Query().Get("period_id")
	if periodID == "" {
		http.Error(w, "缺少period_id参数", http.StatusBadRequest)
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	// 优先读Redis镜像，缓存为空时从数据库回填
	if h.mirror != nil {
		entries, err := h.mirror.TopWins(periodID, limit)
		if err == nil && len(entries) > 0 {
			writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: entries})
			return
		}
		if err := h.mirror.RefreshPeriod(periodID); err != nil {
			log.Printf("刷新排行榜缓存失败 period=%s: %v", periodID, err)
		}
	}

	entries, err := h.boards.TopRankings(periodID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "查询排行榜失败"})
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: entries})
}
