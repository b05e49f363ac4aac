// shop.go

package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/jacl-coder/SkyDuel-Server/internal/models"
	"github.com/jacl-coder/SkyDuel-Server/pkg/token"
)

// ShopHandler 商城处理器
type ShopHandler struct {
	users   *models.UserStore
	catalog *models.CatalogStore
	tokens  *token.Manager
}

// BuyAirplaneRequest 购买战机请求
type BuyAirplaneRequest struct {
	AirplaneTier  int `json:"airplane_tier"`
	AirplaneStyle int `json:"airplane_style"`
}

// BuyConsumableRequest 购买消耗品请求
type BuyConsumableRequest struct {
	ConsumableID string `json:"consumable_id"`
	Count        int    `json:"count"`
}

// CatalogResponse 商品目录响应
type CatalogResponse struct {
	Airplanes   []models.Airplane   `json:"airplanes"`
	Consumables []models.Consumable `json:"consumables"`
}

// NewShopHandler 创建商城处理器
func NewShopHandler(users *models.UserStore, catalog *models.CatalogStore, tokens *token.Manager) *ShopHandler {
	return &ShopHandler{
		users:   users,
		catalog: catalog,
		tokens:  tokens,
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *ShopHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/shop/catalog", h.handleCatalog)
	mux.HandleFunc("/shop/buy/airplane", h.handleBuyAirplane)
	mux.HandleFunc("/shop/buy/consumable", h.handleBuyConsumable)
}

// handleCatalog 查询商品目录
func (h *ShopHandler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	airplanes, err := h.catalog.ListAirplanes()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "查询战机目录失败"})
		return
	}

	consumables, err := h.catalog.ListConsumables()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "查询消耗品目录失败"})
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    CatalogResponse{Airplanes: airplanes, Consumables: consumables},
	})
}

// handleBuyAirplane 购买战机
func (h *ShopHandler) handleBuyAirplane(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}

	claims := authenticate(w, r, h.tokens)
	if claims == nil {
		return
	}

	var req BuyAirplaneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "无效的请求格式", http.StatusBadRequest)
		return
	}

	plane, err := h.catalog.ResolveAirplane(req.AirplaneTier, req.AirplaneStyle)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "查询战机失败"})
		return
	}
	if plane == nil {
		writeJSON(w, http.StatusNotFound, APIResponse{Success: false, Message: "战机不存在"})
		return
	}

	if !h.chargeCoins(w, claims.UserID, plane.Price) {
		return
	}

	if err := h.users.GrantAirplane(claims.UserID, plane.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "解锁战机失败"})
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "购买成功", Data: plane})
}

// handleBuyConsumable 购买消耗品
func (h *ShopHandler) handleBuyConsumable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}

	claims := authenticate(w, r, h.tokens)
	if claims == nil {
		return
	}

	var req BuyConsumableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "无效的请求格式", http.StatusBadRequest)
		return
	}
	if req.Count <= 0 {
		req.Count = 1
	}

	cons, err := h.catalog.ResolveConsumable(req.ConsumableID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "查询消耗品失败"})
		return
	}
	if cons == nil {
		writeJSON(w, http.StatusNotFound, APIResponse{Success: false, Message: "消耗品不存在"})
		return
	}

	if !h.chargeCoins(w, claims.UserID, cons.Price*int64(req.Count)) {
		return
	}

	if err := h.users.GrantConsumable(claims.UserID, cons.ID, req.Count); err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "发放消耗品失败"})
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "购买成功", Data: cons})
}

// chargeCoins 校验余额并扣款，失败时写入响应并返回false
func (h *ShopHandler) chargeCoins(w http.ResponseWriter, userID string, price int64) bool {
	user, err := h.users.LoadUser(userID)
	if err != nil || user == nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "加载用户失败"})
		return false
	}
	if user.Coins < price {
		writeJSON(w, http.StatusOK, APIResponse{Success: false, Message: "金币不足"})
		return false
	}

	if err := h.users.AdjustCoins(userID, -price); err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "扣款失败"})
		return false
	}
	return true
}
