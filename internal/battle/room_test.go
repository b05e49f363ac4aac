// room_test.go

package battle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom() *BattleRoom {
	return &BattleRoom{
		ID: RoomID("a", "b"),
		Sides: [2]*RoomSide{
			{UserID: "a", Health: 100, MaxHealth: 100},
			{UserID: "b", Health: 80, MaxHealth: 80},
		},
		CreatedAt: time.Now(),
	}
}

func TestRoomID(t *testing.T) {
	// 相同输入生成相同ID，顺序敏感
	assert.Equal(t, RoomID("a", "b"), RoomID("a", "b"))
	assert.NotEqual(t, RoomID("a", "b"), RoomID("b", "a"))
}

func TestRoomSideLookup(t *testing.T) {
	room := newTestRoom()

	require.NotNil(t, room.SideOf("a"))
	assert.Equal(t, "a", room.SideOf("a").UserID)
	assert.Equal(t, "b", room.OpponentOf("a").UserID)
	assert.Equal(t, "a", room.OpponentOf("b").UserID)
	assert.Nil(t, room.SideOf("c"))
}

func TestApplyDamage(t *testing.T) {
	tests := []struct {
		name       string
		damage     int
		wantHealth int
		wantDead   bool
	}{
		{"普通伤害", 30, 50, false},
		{"负伤害按零处理", -10, 80, false},
		{"恰好致死", 80, 0, true},
		{"过量伤害血量不为负", 999, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := newTestRoom()
			side := room.SideOf("b")

			dead := room.ApplyDamage(side, tt.damage)
			assert.Equal(t, tt.wantHealth, side.Health)
			assert.Equal(t, tt.wantDead, dead)
			assert.Equal(t, tt.wantDead, room.Terminal)
		})
	}
}

func TestShieldActive(t *testing.T) {
	now := time.Now()
	side := &RoomSide{UserID: "a", Health: 100, MaxHealth: 100}

	assert.False(t, side.ShieldActive(now))

	side.ShieldUntil = now.Add(5 * time.Second)
	assert.True(t, side.ShieldActive(now))
	assert.False(t, side.ShieldActive(now.Add(6*time.Second)))
}

func TestRoomStore(t *testing.T) {
	store := NewRoomStore()
	room := newTestRoom()

	store.Put(room)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, room, store.Get(room.ID))

	store.Delete(room.ID)
	assert.Nil(t, store.Get(room.ID))
	assert.Equal(t, 0, store.Len())
}
