// handler.go

package battle

import (
	"encoding/json"
	"log"
	"time"
)

// handleMessage 分发客户端消息
func (s *BattleServer) handleMessage(conn *Conn, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("消息解析失败: %v", err)
		return
	}

	switch msg.Type {
	case MsgLogin:
		s.handleLogin(conn, msg.Payload)
	case MsgMove:
		s.relayMove(conn, msg.Payload)
	case MsgShoot:
		s.relayShoot(conn, msg.Payload)
	case MsgHit:
		s.handleHit(conn, msg.Payload)
	case MsgPotionActivate:
		s.handlePotionActivate(conn, msg.Payload)
	case MsgGameOver:
		s.handleForfeit(conn)
	default:
		log.Printf("未知消息类型: %s", msg.Type)
	}
}

// handleLogin 处理登录消息：注册会话并尝试匹配
func (s *BattleServer) handleLogin(conn *Conn, raw json.RawMessage) {
	var p LoginPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Printf("登录消息解析失败: %v", err)
		return
	}
	if p.UserID == "" {
		log.Println("登录消息缺少用户ID")
		return
	}

	s.mu.Lock()
	conn.UserID = p.UserID

	// 同一用户重复登录：清理旧会话，若其仍在对局中则一并结束对局
	if old := s.registry.Lookup(p.UserID); old != nil {
		log.Printf("用户 %s 重复登录，清理旧会话", p.UserID)
		s.teardownSessionLocked(old)
	}

	viewport := p.Viewport
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = ViewportInfo{
			Width:  s.config.Game.DefaultViewportW,
			Height: s.config.Game.DefaultViewportH,
		}
	}

	sess := &Session{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Conn:        conn,
		Loadout:     p.Loadout,
		Viewport:    viewport,
		LoginAt:     time.Now(),
	}
	s.registry.Register(sess)

	oppID, found := s.queue.FindOpponentExcluding(p.UserID)
	if !found {
		s.queue.Enqueue(p.UserID)
		s.sendToSession(sess, MsgWaiting, WaitingPayload{Text: "正在等待对手..."})
		s.mu.Unlock()
		log.Printf("用户 %s 进入匹配队列", p.UserID)
		return
	}
	s.mu.Unlock()

	log.Printf("匹配成功: %s vs %s", oppID, p.UserID)
	s.startMatch(oppID, p.UserID)
}

// relayMove 将移动消息转发给对手
func (s *BattleServer) relayMove(conn *Conn, raw json.RawMessage) {
	var p MovePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	s.relayToOpponent(conn, MsgOpponentMove, p)
}

// relayShoot 将射击消息转发给对手
func (s *BattleServer) relayShoot(conn *Conn, raw json.RawMessage) {
	var p ShootPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	s.relayToOpponent(conn, MsgOpponentShoot, p)
}

// relayToOpponent 将消息原样转发给发送者的对手。
// 发送者不在对局中、对局已终止或对手会话不存在时静默丢弃。
func (s *BattleServer) relayToOpponent(conn *Conn, msgType string, payload interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.Lookup(conn.UserID)
	if sess == nil || !sess.InBattle() {
		return
	}

	room := s.rooms.Get(sess.RoomID)
	if room == nil || room.Terminal {
		return
	}

	opp := s.registry.Lookup(sess.OpponentID)
	if opp == nil {
		return
	}

	s.sendToSession(opp, msgType, payload)
}
