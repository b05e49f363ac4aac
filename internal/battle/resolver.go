// resolver.go

package battle

import (
	"encoding/json"
	"log"
	"time"

	"github.com/jacl-coder/SkyDuel-Server/internal/models"
)

// broadcastHealthLocked 向房间双方下发各自视角的血量同步。调用方必须持有状态锁。
func (s *BattleServer) broadcastHealthLocked(room *BattleRoom) {
	for _, side := range room.Sides {
		opp := room.OpponentOf(side.UserID)
		if opp == nil {
			continue
		}
		if sess := s.registry.Lookup(side.UserID); sess != nil {
			s.sendToSession(sess, MsgHealthUpdate, HealthUpdatePayload{
				Health:         side.Health,
				OpponentHealth: opp.Health,
			})
		}
	}
}

// handleHit 处理命中上报：对手扣血并同步血量，血量归零时进入结算
func (s *BattleServer) handleHit(conn *Conn, raw json.RawMessage) {
	var p HitPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}

	s.mu.Lock()
	sess := s.registry.Lookup(conn.UserID)
	if sess == nil || !sess.InBattle() {
		s.mu.Unlock()
		return
	}

	room := s.rooms.Get(sess.RoomID)
	if room == nil || room.Terminal {
		s.mu.Unlock()
		return
	}

	defender := room.OpponentOf(sess.UserID)
	if defender == nil {
		s.mu.Unlock()
		return
	}

	// 护盾期间完全吸收伤害，血量不变
	if defender.ShieldActive(time.Now()) {
		s.broadcastHealthLocked(room)
		s.mu.Unlock()
		return
	}

	dead := room.ApplyDamage(defender, p.Damage)
	s.broadcastHealthLocked(room)

	if !dead {
		s.mu.Unlock()
		return
	}

	roomID := room.ID
	winnerID, loserID := sess.UserID, defender.UserID
	s.mu.Unlock()

	s.finishMatch(roomID, winnerID, loserID)
}

// finishMatch 击杀结算：持久化战绩、金币与排行榜，随后下发结束通知并拆除房间。
// 房间在扣血阶段已标记终止，结算最多执行一次。
func (s *BattleServer) finishMatch(roomID, winnerID, loserID string) {
	winReward := s.config.Game.WinCoinReward
	loseReward := s.config.Game.LoseCoinReward

	// 战绩与金币（持久化失败只记录日志，不回滚已应用的部分）
	if err := s.users.IncrementWinLoss(winnerID, true); err != nil {
		log.Printf("更新胜场失败 user=%s: %v", winnerID, err)
	}
	if err := s.users.AdjustCoins(winnerID, winReward); err != nil {
		log.Printf("发放胜利奖励失败 user=%s: %v", winnerID, err)
	}
	if err := s.users.IncrementWinLoss(loserID, false); err != nil {
		log.Printf("更新负场失败 user=%s: %v", loserID, err)
	}
	if err := s.users.AdjustCoins(loserID, loseReward); err != nil {
		log.Printf("发放安慰奖励失败 user=%s: %v", loserID, err)
	}

	// 所有活跃周期的排行榜各累加一次战绩
	periods, err := s.boards.ListActivePeriods()
	if err != nil {
		log.Printf("查询排行榜周期失败: %v", err)
	}
	for _, period := range periods {
		if err := s.boards.UpsertRankingIncrement(period.ID, winnerID, true); err != nil {
			log.Printf("更新排行榜失败 period=%s user=%s: %v", period.ID, winnerID, err)
		}
		if err := s.boards.UpsertRankingIncrement(period.ID, loserID, false); err != nil {
			log.Printf("更新排行榜失败 period=%s user=%s: %v", period.ID, loserID, err)
		}
		if s.mirror != nil {
			if err := s.mirror.IncrRanking(period.ID, winnerID, true); err != nil {
				log.Printf("更新排行榜缓存失败 period=%s user=%s: %v", period.ID, winnerID, err)
			}
		}
	}

	// 持久化完成后重新校验房间（期间可能已被断线清理拆除）
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms.Get(roomID)
	if room == nil {
		return
	}

	if winner := s.registry.Lookup(winnerID); winner != nil {
		s.sendToSession(winner, MsgGameOverNotice, GameOverPayload{Result: "win"})
		s.registry.Remove(winnerID)
	}
	if loser := s.registry.Lookup(loserID); loser != nil {
		s.sendToSession(loser, MsgGameOverNotice, GameOverPayload{Result: "lose"})
		s.registry.Remove(loserID)
	}
	s.rooms.Delete(roomID)

	log.Printf("对局结束 room=%s 胜者=%s", roomID, winnerID)
}

// handleForfeit 处理主动认输：通知双方结果并拆除房间，不做任何战绩与金币结算
func (s *BattleServer) handleForfeit(conn *Conn) {
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
	room.Terminal = true

	if opp := s.registry.Lookup(sess.OpponentID); opp != nil {
		s.sendToSession(opp, MsgGameOverNotice, GameOverPayload{Result: "win"})
		s.registry.Remove(opp.UserID)
	}
	s.sendToSession(sess, MsgGameOverNotice, GameOverPayload{Result: "lose"})
	s.registry.Remove(sess.UserID)
	s.rooms.Delete(room.ID)

	log.Printf("用户 %s 认输，对局 %s 结束", sess.UserID, room.ID)
}

// handlePotionActivate 处理消耗品使用：校验目录、扣减库存并应用效果
func (s *BattleServer) handlePotionActivate(conn *Conn, raw json.RawMessage) {
	var p PotionPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.ConsumableID == "" {
		return
	}

	s.mu.Lock()
	sess := s.registry.Lookup(conn.UserID)
	if sess == nil || !sess.InBattle() {
		s.mu.Unlock()
		return
	}
	room := s.rooms.Get(sess.RoomID)
	if room == nil || room.Terminal {
		s.mu.Unlock()
		return
	}
	userID := sess.UserID
	roomID := sess.RoomID
	s.mu.Unlock()

	cons, err := s.catalog.ResolveConsumable(p.ConsumableID)
	if err != nil {
		log.Printf("解析消耗品失败 id=%s: %v", p.ConsumableID, err)
		return
	}
	if cons == nil {
		log.Printf("用户 %s 使用了未知消耗品 %s", userID, p.ConsumableID)
		return
	}

	if err := s.users.DecrementOwnedConsumable(userID, p.ConsumableID); err != nil {
		log.Printf("扣减消耗品失败 user=%s id=%s: %v", userID, p.ConsumableID, err)
		return
	}

	// 扣减完成后重新校验会话与房间（期间对局可能已结束）
	s.mu.Lock()
	defer s.mu.Unlock()

	sess = s.registry.Lookup(userID)
	if sess == nil || sess.RoomID != roomID {
		return
	}
	room = s.rooms.Get(roomID)
	if room == nil || room.Terminal {
		return
	}
	side := room.SideOf(userID)
	if side == nil {
		return
	}

	switch cons.EffectKind {
	case models.EffectShield:
		side.ShieldUntil = time.Now().Add(time.Duration(s.config.Game.ShieldDurationMS) * time.Millisecond)
	case models.EffectHeal:
		side.Health = side.MaxHealth
		s.broadcastHealthLocked(room)
	default:
		log.Printf("消耗品 %s 效果类型未知: %s", cons.ID, cons.EffectKind)
		return
	}

	if opp := s.registry.Lookup(sess.OpponentID); opp != nil {
		s.sendToSession(opp, MsgOpponentPotion, OpponentPotionPayload{Name: cons.Name})
	}
}
