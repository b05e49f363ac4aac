// auth.go

package gateway

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jacl-coder/SkyDuel-Server/internal/models"
	"github.com/jacl-coder/SkyDuel-Server/pkg/token"
)

// 新用户初始金币
const startingCoins = 100

// AuthHandler 认证处理器
type AuthHandler struct {
	users  *models.UserStore
	tokens *token.Manager
	mirror *models.RedisLeaderboard
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Token    string `json:"token,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(users *models.UserStore, tokens *token.Manager, mirror *models.RedisLeaderboard) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		mirror: mirror,
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *AuthHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/validate", h.handleValidate)
}

// handleLogin 处理登录请求
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "无效的请求格式", http.StatusBadRequest)
		return
	}

	user, err := h.users.LoadUserByUsername(req.Username)
	if err != nil {
		http.Error(w, "数据库查询错误", http.StatusInternalServerError)
		return
	}
	if user == nil || user.Password != hashPassword(req.Password) {
		writeAuthResponse(w, AuthResponse{Success: false, Message: "用户名或密码错误"})
		return
	}

	tokenString, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		http.Error(w, "生成令牌失败", http.StatusInternalServerError)
		return
	}

	// 刷新排行榜缓存中的展示信息
	if h.mirror != nil {
		h.mirror.UpdateUserInfo(user.ID, user.DisplayName)
	}

	writeAuthResponse(w, AuthResponse{
		Success:  true,
		Message:  "登录成功",
		Token:    tokenString,
		UserID:   user.ID,
		Username: user.Username,
	})
}

// handleRegister 处理注册请求
func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "无效的请求格式", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "缺少必要参数", http.StatusBadRequest)
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	// 检查用户名是否已存在
	existing, err := h.users.LoadUserByUsername(req.Username)
	if err != nil {
		http.Error(w, "数据库查询错误", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		writeAuthResponse(w, AuthResponse{Success: false, Message: "用户名已存在"})
		return
	}

	user := &models.User{
		ID:          uuid.New().String(),
		Username:    req.Username,
		Password:    hashPassword(req.Password),
		DisplayName: req.DisplayName,
		Coins:       startingCoins,
	}
	if err := h.users.CreateUser(user); err != nil {
		writeAuthResponse(w, AuthResponse{Success: false, Message: fmt.Sprintf("注册失败: %v", err)})
		return
	}

	tokenString, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		http.Error(w, "生成令牌失败", http.StatusInternalServerError)
		return
	}

	if h.mirror != nil {
		h.mirror.UpdateUserInfo(user.ID, user.DisplayName)
	}

	writeAuthResponse(w, AuthResponse{
		Success:  true,
		Message:  "注册成功",
		Token:    tokenString,
		UserID:   user.ID,
		Username: user.Username,
	})
}

// handleValidate 处理令牌验证请求
func (h *AuthHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	tokenString := extractToken(r)
	if tokenString == "" {
		http.Error(w, "未提供令牌", http.StatusBadRequest)
		return
	}

	claims, err := h.tokens.Verify(tokenString)
	if err != nil {
		http.Error(w, "无效或已过期的令牌", http.StatusUnauthorized)
		return
	}

	writeAuthResponse(w, AuthResponse{
		Success:  true,
		Message:  "令牌有效",
		UserID:   claims.UserID,
		Username: claims.Username,
	})
}

// writeAuthResponse 写入认证响应
func writeAuthResponse(w http.ResponseWriter, resp AuthResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// hashPassword 计算密码哈希
func hashPassword(password string) string {
	// 使用SHA-256哈希
	// 在实际应用中，应该使用更安全的哈希算法，如bcrypt
	hash := sha256.Sum256([]byte(password))
	return fmt.Sprintf("%x", hash)
}
