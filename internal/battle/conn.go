// conn.go

package battle

import (
	"time"

	"github.com/gorilla/websocket"
)

// Conn 玩家WebSocket连接
type Conn struct {
	ID         string // 连接ID
	UserID     string // 登录后绑定的用户ID，未登录时为空
	Conn       *websocket.Conn
	Send       chan []byte
	LastActive time.Time
	IsAlive    bool
}

// push 非阻塞投递一条已序列化的消息，缓冲区满时返回false
func (c *Conn) push(data []byte) bool {
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}
