// session.go

package battle

import (
	"time"

	"github.com/jacl-coder/SkyDuel-Server/internal/models"
)

// Session 在线玩家会话
type Session struct {
	UserID      string
	DisplayName string
	Conn        *Conn
	Loadout     LoadoutInfo
	Viewport    ViewportInfo
	Airplane    *models.Airplane // 开局时由目录解析填充
	OpponentID  string           // 对局建立后填充
	RoomID      string           // 对局建立后填充
	LoginAt     time.Time
}

// InBattle 会话是否已进入对局
func (s *Session) InBattle() bool {
	return s.RoomID != ""
}

// Registry 按用户ID索引的在线会话注册表。
// 注册表本身不加锁，所有访问都必须持有战斗服务器的状态锁。
type Registry struct {
	sessions map[string]*Session
}

// NewRegistry 创建会话注册表
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register 注册会话，同一用户重复登录时覆盖旧会话并返回被替换的会话
func (r *Registry) Register(sess *Session) *Session {
	old := r.sessions[sess.UserID]
	r.sessions[sess.UserID] = sess
	return old
}

// Lookup 按用户ID查找会话，不存在时返回nil
func (r *Registry) Lookup(userID string) *Session {
	return r.sessions[userID]
}

// Remove 移除会话
func (r *Registry) Remove(userID string) {
	delete(r.sessions, userID)
}

// Len 在线会话数
func (r *Registry) Len() int {
	return len(r.sessions)
}
