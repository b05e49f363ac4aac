// common.go

package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jacl-coder/SkyDuel-Server/pkg/token"
)

// APIResponse 统一的API响应结构
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// writeJSON 写入JSON响应
func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// extractToken 从请求中提取令牌（优先Authorization头，其次token查询参数）
func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// authenticate 验证请求令牌并返回负载，失败时写入401响应并返回nil
func authenticate(w http.ResponseWriter, r *http.Request, tokens *token.Manager) *token.Claims {
	tokenString := extractToken(r)
	if tokenString == "" {
		writeJSON(w, http.StatusUnauthorized, APIResponse{Success: false, Message: "未提供令牌"})
		return nil
	}

	claims, err := tokens.Verify(tokenString)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, APIResponse{Success: false, Message: "无效或已过期的令牌"})
		return nil
	}
	return claims
}
