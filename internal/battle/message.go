// message.go

package battle

import "encoding/json"

// Message 消息结构
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// 客户端发来的消息类型
const (
	MsgLogin          = "login"
	MsgMove           = "move"
	MsgShoot          = "shoot"
	MsgHit            = "hit"
	MsgPotionActivate = "potion_activate"
	MsgGameOver       = "game_over"
)

// 服务器下发的消息类型
const (
	MsgWaiting              = "waiting"
	MsgGameStart            = "game_start"
	MsgGameCancelled        = "game_cancelled"
	MsgOpponentMove         = "opponent_move"
	MsgOpponentShoot        = "opponent_shoot"
	MsgHealthUpdate         = "health_update"
	MsgOpponentPotion       = "opponent_potion_activate"
	MsgGameOverNotice       = "game_over"
	MsgOpponentDisconnected = "opponent_disconnected"
)

// LoadoutInfo 登录时声明的装备配置
type LoadoutInfo struct {
	AirplaneTier  int    `json:"airplane_tier"`
	AirplaneStyle int    `json:"airplane_style"`
	CompanionID   string `json:"companion_id"`
	BulletAsset   string `json:"bullet_asset"`
	ConsumableID  string `json:"consumable_id,omitempty"`
}

// ViewportInfo 客户端声明的屏幕尺寸
type ViewportInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LoginPayload 登录消息负载
type LoginPayload struct {
	UserID      string       `json:"user_id"`
	DisplayName string       `json:"display_name"`
	Loadout     LoadoutInfo  `json:"loadout"`
	Viewport    ViewportInfo `json:"viewport"`
}

// MovePayload 移动消息负载（按屏幕百分比坐标）
type MovePayload struct {
	PercentX float64 `json:"percent_x"`
	PercentY float64 `json:"percent_y"`
}

// ShootPayload 射击消息负载
type ShootPayload struct {
	Source  string          `json:"source"`
	Details json.RawMessage `json:"details,omitempty"`
}

// HitPayload 命中消息负载
type HitPayload struct {
	Damage int `json:"damage"`
}

// PotionPayload 消耗品使用消息负载
type PotionPayload struct {
	ConsumableID string `json:"consumable_id"`
}

// WaitingPayload 等待匹配通知
type WaitingPayload struct {
	Text string `json:"text"`
}

// OpponentSummary 对手展示信息
type OpponentSummary struct {
	DisplayName   string `json:"display_name"`
	AirplaneTier  int    `json:"airplane_tier"`
	AirplaneStyle int    `json:"airplane_style"`
	CompanionID   string `json:"companion_id"`
	BulletAsset   string `json:"bullet_asset"`
}

// GameStartPayload 开局通知（以各自视角镜像血量字段）
type GameStartPayload struct {
	Opponent          OpponentSummary `json:"opponent"`
	Health            int             `json:"health"`
	MaxHealth         int             `json:"max_health"`
	OpponentHealth    int             `json:"opponent_health"`
	OpponentMaxHealth int             `json:"opponent_max_health"`
}

// GameCancelledPayload 对局取消通知
type GameCancelledPayload struct {
	Reason string `json:"reason"`
}

// HealthUpdatePayload 血量同步通知（以各自视角）
type HealthUpdatePayload struct {
	Health         int `json:"health"`
	OpponentHealth int `json:"opponent_health"`
}

// OpponentPotionPayload 对手使用消耗品通知（仅效果名称）
type OpponentPotionPayload struct {
	Name string `json:"name"`
}

// GameOverPayload 对局结束通知
type GameOverPayload struct {
	Result string `json:"result"` // win, lose
}

// encodeMessage 序列化一条带负载的消息
func encodeMessage(msgType string, payload interface{}) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return json.Marshal(Message{Type: msgType, Payload: raw})
}
