// room.go

package battle

import (
	"fmt"
	"time"
)

// RoomSide 房间内单方的战斗状态
type RoomSide struct {
	UserID      string
	Health      int
	MaxHealth   int
	ShieldUntil time.Time // 护盾失效时间，零值表示无护盾
}

// ShieldActive 护盾在指定时刻是否生效
func (rs *RoomSide) ShieldActive(now time.Time) bool {
	return rs.ShieldUntil.After(now)
}

// BattleRoom 对战房间
type BattleRoom struct {
	ID        string
	Sides     [2]*RoomSide
	Terminal  bool // 对局已结束，拒绝后续战斗消息
	CreatedAt time.Time
}

// SideOf 按用户ID查找己方状态，不在房间内时返回nil
func (r *BattleRoom) SideOf(userID string) *RoomSide {
	for _, side := range r.Sides {
		if side.UserID == userID {
			return side
		}
	}
	return nil
}

// OpponentOf 按用户ID查找对方状态，不在房间内时返回nil
func (r *BattleRoom) OpponentOf(userID string) *RoomSide {
	for _, side := range r.Sides {
		if side.UserID != userID {
			return side
		}
	}
	return nil
}

// ApplyDamage 对指定一方扣血，血量下限为0，归零时房间进入终止状态。
// 返回扣血后是否死亡。负伤害按0处理。
func (r *BattleRoom) ApplyDamage(side *RoomSide, damage int) bool {
	if damage < 0 {
		damage = 0
	}
	side.Health -= damage
	if side.Health < 0 {
		side.Health = 0
	}
	if side.Health == 0 {
		r.Terminal = true
		return true
	}
	return false
}

// RoomStore 对战房间存储。
// 存储本身不加锁，所有访问都必须持有战斗服务器的状态锁。
type RoomStore struct {
	rooms map[string]*BattleRoom
}

// NewRoomStore 创建房间存储
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*BattleRoom),
	}
}

// RoomID 由两名参与者ID生成确定性房间ID（顺序敏感）
func RoomID(firstUserID, secondUserID string) string {
	return fmt.Sprintf("%s_%s", firstUserID, secondUserID)
}

// Put 存入房间
func (s *RoomStore) Put(room *BattleRoom) {
	s.rooms[room.ID] = room
}

// Get 按ID查找房间，不存在时返回nil
func (s *RoomStore) Get(roomID string) *BattleRoom {
	return s.rooms[roomID]
}

// Delete 删除房间
func (s *RoomStore) Delete(roomID string) {
	delete(s.rooms, roomID)
}

// Len 房间数
func (s *RoomStore) Len() int {
	return len(s.rooms)
}
