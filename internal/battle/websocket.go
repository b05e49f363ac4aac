// websocket.go

package battle

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// 写超时
	writeWait = 10 * time.Second

	// Pong等待时间
	pongWait = 60 * time.Second

	// Ping周期，必须小于pongWait
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 4096

	// 发送缓冲区大小
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 允许所有来源（生产环境应该限制）
		return true
	},
}

// handleWSConnection 处理WebSocket连接请求
func (s *BattleServer) handleWSConnection(w http.ResponseWriter, r *http.Request) {
	// 升级前校验网关签发的令牌
	if s.tokens != nil {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "缺少token参数", http.StatusUnauthorized)
			return
		}
		if _, err := s.tokens.Verify(tokenString); err != nil {
			http.Error(w, "令牌无效", http.StatusUnauthorized)
			return
		}
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket升级失败: %v", err)
		return
	}

	conn := &Conn{
		ID:         uuid.New().String(),
		Conn:       ws,
		Send:       make(chan []byte, sendBufferSize),
		LastActive: time.Now(),
		IsAlive:    true,
	}

	s.mu.Lock()
	s.conns[conn.ID] = conn
	s.mu.Unlock()

	log.Printf("新连接建立: %s", conn.ID)

	go s.writePump(conn)
	go s.readPump(conn)
}

// readPump 从连接读取消息
func (s *BattleServer) readPump(conn *Conn) {
	defer s.closeConnection(conn)

	conn.Conn.SetReadLimit(maxMessageSize)
	conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.LastActive = time.Now()
		return nil
	})

	for {
		_, data, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("连接 %s 异常断开: %v", conn.ID, err)
			}
			break
		}

		conn.LastActive = time.Now()
		s.handleMessage(conn, data)
	}
}

// writePump 向连接写入消息
func (s *BattleServer) writePump(conn *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeConnection 连接断开时的清理入口
func (s *BattleServer) closeConnection(conn *Conn) {
	conn.Conn.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conns[conn.ID]; !ok {
		// 已经清理过
		return
	}
	delete(s.conns, conn.ID)
	conn.IsAlive = false
	close(conn.Send)

	if conn.UserID == "" {
		// 从未登录的连接
		return
	}

	sess := s.registry.Lookup(conn.UserID)
	if sess == nil || sess.Conn != conn {
		// 会话已被重新登录的新连接接管
		return
	}

	s.teardownSessionLocked(sess)
	log.Printf("用户 %s 断开连接", conn.UserID)
}

// teardownSessionLocked 移除一个会话及其关联状态。
// 若会话在对局中，先通知对方其对手已离开，再删除房间与双方会话。
// 调用方必须持有状态锁。
func (s *BattleServer) teardownSessionLocked(sess *Session) {
	s.queue.Remove(sess.UserID)

	if sess.RoomID != "" {
		if room := s.rooms.Get(sess.RoomID); room != nil {
			if oppSide := room.OpponentOf(sess.UserID); oppSide != nil {
				if opp := s.registry.Lookup(oppSide.UserID); opp != nil {
					s.sendToSession(opp, MsgOpponentDisconnected, nil)
					s.registry.Remove(opp.UserID)
				}
			}
			s.rooms.Delete(sess.RoomID)
		}
	}

	s.registry.Remove(sess.UserID)
}
