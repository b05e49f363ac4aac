// lifecycle.go

package battle

import (
	"log"
	"time"

	"github.com/jacl-coder/SkyDuel-Server/internal/models"
)

// validateParticipant 校验参与者的用户数据、所选战机与入场费余额。
// 通过时返回解析后的战机，失败时返回面向客户端的原因文案。
func (s *BattleServer) validateParticipant(userID string, loadout LoadoutInfo) (*models.Airplane, string) {
	user, err := s.users.LoadUser(userID)
	if err != nil {
		log.Printf("加载用户失败 user=%s: %v", userID, err)
		return nil, "玩家数据加载失败"
	}
	if user == nil {
		return nil, "玩家数据不存在"
	}

	plane, err := s.catalog.ResolveAirplane(loadout.AirplaneTier, loadout.AirplaneStyle)
	if err != nil {
		log.Printf("解析战机失败 user=%s: %v", userID, err)
		return nil, "战机数据加载失败"
	}
	if plane == nil {
		return nil, "所选战机不存在"
	}

	if user.Coins < s.config.Game.MatchEntryCost {
		return nil, "金币不足，无法支付入场费"
	}

	return plane, ""
}

// cancelMatchLocked 向仍在线的参与者发送取消通知并移除其会话与队列条目。
// 不自动重新入队，客户端需重新发起登录。调用方必须持有状态锁。
func (s *BattleServer) cancelMatchLocked(reason string, userIDs ...string) {
	for _, id := range userIDs {
		s.queue.Remove(id)
		if sess := s.registry.Lookup(id); sess != nil {
			s.sendToSession(sess, MsgGameCancelled, GameCancelledPayload{Reason: reason})
			s.registry.Remove(id)
		}
	}
}

// startMatch 对两名已匹配的玩家建立对局：
// 校验双方数据与余额，扣除入场费，创建房间并向双方下发开局通知。
// 任何一步校验失败都会向双方发送取消通知并移除会话。
func (s *BattleServer) startMatch(firstID, secondID string) {
	s.mu.Lock()
	first := s.registry.Lookup(firstID)
	second := s.registry.Lookup(secondID)
	if first == nil || second == nil {
		// 匹配成立前有一方断开
		s.cancelMatchLocked("对手已离线", firstID, secondID)
		s.mu.Unlock()
		return
	}
	firstLoadout := first.Loadout
	secondLoadout := second.Loadout
	s.mu.Unlock()

	// 校验双方（数据库访问在锁外进行）
	firstPlane, reason := s.validateParticipant(firstID, firstLoadout)
	if reason == "" {
		var secondPlane *models.Airplane
		secondPlane, reason = s.validateParticipant(secondID, secondLoadout)
		if reason == "" {
			s.establishRoom(firstID, secondID, firstPlane, secondPlane)
			return
		}
	}

	log.Printf("匹配取消 %s vs %s: %s", firstID, secondID, reason)
	s.mu.Lock()
	s.cancelMatchLocked(reason, firstID, secondID)
	s.mu.Unlock()
}

// establishRoom 扣除双方入场费并创建对战房间
func (s *BattleServer) establishRoom(firstID, secondID string, firstPlane, secondPlane *models.Airplane) {
	entryCost := s.config.Game.MatchEntryCost

	if err := s.users.AdjustCoins(firstID, -entryCost); err != nil {
		log.Printf("扣除入场费失败 user=%s: %v", firstID, err)
		s.mu.Lock()
		s.cancelMatchLocked("入场费扣除失败", firstID, secondID)
		s.mu.Unlock()
		return
	}
	if err := s.users.AdjustCoins(secondID, -entryCost); err != nil {
		log.Printf("扣除入场费失败 user=%s: %v", secondID, err)
		// 回滚已扣的一方
		if rbErr := s.users.AdjustCoins(firstID, entryCost); rbErr != nil {
			log.Printf("退还入场费失败 user=%s: %v", firstID, rbErr)
		}
		s.mu.Lock()
		s.cancelMatchLocked("入场费扣除失败", firstID, secondID)
		s.mu.Unlock()
		return
	}

	// 扣费完成后重新校验双方会话（期间可能断开或重新登录）
	s.mu.Lock()
	first := s.registry.Lookup(firstID)
	second := s.registry.Lookup(secondID)
	if first == nil || second == nil || first.InBattle() || second.InBattle() {
		s.cancelMatchLocked("对手已离线", firstID, secondID)
		s.mu.Unlock()

		// 对局未建立，退还双方入场费
		for _, id := range []string{firstID, secondID} {
			if err := s.users.AdjustCoins(id, entryCost); err != nil {
				log.Printf("退还入场费失败 user=%s: %v", id, err)
			}
		}
		return
	}

	s.queue.Remove(firstID)
	s.queue.Remove(secondID)

	room := &BattleRoom{
		ID: RoomID(firstID, secondID),
		Sides: [2]*RoomSide{
			{UserID: firstID, Health: firstPlane.BaseHealth, MaxHealth: firstPlane.BaseHealth},
			{UserID: secondID, Health: secondPlane.BaseHealth, MaxHealth: secondPlane.BaseHealth},
		},
		CreatedAt: time.Now(),
	}
	s.rooms.Put(room)

	first.Airplane = firstPlane
	first.OpponentID = secondID
	first.RoomID = room.ID
	second.Airplane = secondPlane
	second.OpponentID = firstID
	second.RoomID = room.ID

	s.sendToSession(first, MsgGameStart, GameStartPayload{
		Opponent: OpponentSummary{
			DisplayName:   second.DisplayName,
			AirplaneTier:  second.Loadout.AirplaneTier,
			AirplaneStyle: second.Loadout.AirplaneStyle,
			CompanionID:   second.Loadout.CompanionID,
			BulletAsset:   second.Loadout.BulletAsset,
		},
		Health:            firstPlane.BaseHealth,
		MaxHealth:         firstPlane.BaseHealth,
		OpponentHealth:    secondPlane.BaseHealth,
		OpponentMaxHealth: secondPlane.BaseHealth,
	})
	s.sendToSession(second, MsgGameStart, GameStartPayload{
		Opponent: OpponentSummary{
			DisplayName:   first.DisplayName,
			AirplaneTier:  first.Loadout.AirplaneTier,
			AirplaneStyle: first.Loadout.AirplaneStyle,
			CompanionID:   first.Loadout.CompanionID,
			BulletAsset:   first.Loadout.BulletAsset,
		},
		Health:            secondPlane.BaseHealth,
		MaxHealth:         secondPlane.BaseHealth,
		OpponentHealth:    firstPlane.BaseHealth,
		OpponentMaxHealth: firstPlane.BaseHealth,
	})

	firstName, secondName := first.DisplayName, second.DisplayName
	s.mu.Unlock()

	// 刷新排行榜缓存中的用户展示信息
	if s.mirror != nil {
		if err := s.mirror.UpdateUserInfo(firstID, firstName); err != nil {
			log.Printf("更新用户缓存信息失败 user=%s: %v", firstID, err)
		}
		if err := s.mirror.UpdateUserInfo(secondID, secondName); err != nil {
			log.Printf("更新用户缓存信息失败 user=%s: %v", secondID, err)
		}
	}

	log.Printf("对局开始 room=%s: %s vs %s", room.ID, firstID, secondID)
}
