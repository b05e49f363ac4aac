// handler_test.go

package battle

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacl-coder/SkyDuel-Server/config"
	"github.com/jacl-coder/SkyDuel-Server/internal/models"
)

// fakeUserStore 内存用户存储
type fakeUserStore struct {
	users map[string]*models.User
	owned map[string]int // userID|consumableID -> 数量
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users: make(map[string]*models.User),
		owned: make(map[string]int),
	}
}

func (f *fakeUserStore) addUser(id string, coins int64) {
	f.users[id] = &models.User{ID: id, Username: id, DisplayName: "玩家" + id, Coins: coins}
}

func (f *fakeUserStore) LoadUser(userID string) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) AdjustCoins(userID string, delta int64) error {
	u, ok := f.users[userID]
	if !ok {
		return fmt.Errorf("用户不存在: %s", userID)
	}
	u.Coins += delta
	return nil
}

func (f *fakeUserStore) IncrementWinLoss(userID string, isWin bool) error {
	u, ok := f.users[userID]
	if !ok {
		return fmt.Errorf("用户不存在: %s", userID)
	}
	if isWin {
		u.TotalWins++
	} else {
		u.TotalLosses++
	}
	return nil
}

func (f *fakeUserStore) DecrementOwnedConsumable(userID, consumableID string) error {
	key := userID + "|" + consumableID
	if f.owned[key] <= 0 {
		return fmt.Errorf("用户 %s 没有可用的消耗品 %s", userID, consumableID)
	}
	f.owned[key]--
	return nil
}

// fakeCatalog 内存目录
type fakeCatalog struct {
	airplanes   map[string]*models.Airplane
	consumables map[string]*models.Consumable
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		airplanes:   make(map[string]*models.Airplane),
		consumables: make(map[string]*models.Consumable),
	}
}

func (f *fakeCatalog) ResolveAirplane(tier, style int) (*models.Airplane, error) {
	return f.airplanes[fmt.Sprintf("%d_%d", tier, style)], nil
}

func (f *fakeCatalog) ResolveConsumable(consumableID string) (*models.Consumable, error) {
	return f.consumables[consumableID], nil
}

// fakeLeaderboard 内存排行榜
type fakeLeaderboard struct {
	periods    []models.LeaderboardPeriod
	increments map[string]int // periodID|userID|win 或 loss
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{
		increments: make(map[string]int),
	}
}

func (f *fakeLeaderboard) ListActivePeriods() ([]models.LeaderboardPeriod, error) {
	return f.periods, nil
}

func (f *fakeLeaderboard) UpsertRankingIncrement(periodID, userID string, isWin bool) error {
	kind := "loss"
	if isWin {
		kind = "win"
	}
	f.increments[periodID+"|"+userID+"|"+kind]++
	return nil
}

// newTestServer 创建带内存依赖的测试服务器，预置两名玩家
func newTestServer() (*BattleServer, *fakeUserStore, *fakeCatalog, *fakeLeaderboard) {
	cfg := &config.Config{
		Game: config.GameConfig{
			MatchEntryCost:   10,
			WinCoinReward:    20,
			LoseCoinReward:   5,
			ShieldDurationMS: 5000,
			DefaultViewportW: 1920,
			DefaultViewportH: 1080,
		},
	}

	users := newFakeUserStore()
	users.addUser("user1", 100)
	users.addUser("user2", 100)
	users.owned["user1|shield_potion"] = 3
	users.owned["user1|heal_potion"] = 3
	users.owned["user2|shield_potion"] = 3

	catalog := newFakeCatalog()
	catalog.airplanes["1_1"] = &models.Airplane{ID: 1, Tier: 1, Style: 1, Name: "隼式侦察机", BaseHealth: 100, Damage: 10}
	catalog.consumables["shield_potion"] = &models.Consumable{ID: "shield_potion", Name: "护盾药剂", EffectKind: models.EffectShield}
	catalog.consumables["heal_potion"] = &models.Consumable{ID: "heal_potion", Name: "修复药剂", EffectKind: models.EffectHeal}

	boards := newFakeLeaderboard()
	boards.periods = []models.LeaderboardPeriod{{ID: "daily_test", PeriodType: models.PeriodDaily}}

	s := NewBattleServer(cfg, nil, users, catalog, boards, nil)
	return s, users, catalog, boards
}

// mustMsg 构造一条客户端消息
func mustMsg(t *testing.T, msgType string, payload interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	data, err := json.Marshal(Message{Type: msgType, Payload: raw})
	require.NoError(t, err)
	return data
}

// login 模拟一条连接完成登录
func login(t *testing.T, s *BattleServer, userID string) *Conn {
	t.Helper()
	conn := &Conn{ID: "conn-" + userID, Send: make(chan []byte, 64), IsAlive: true}
	s.handleMessage(conn, mustMsg(t, MsgLogin, LoginPayload{
		UserID:      userID,
		DisplayName: "玩家" + userID,
		Loadout:     LoadoutInfo{AirplaneTier: 1, AirplaneStyle: 1},
	}))
	return conn
}

// readMessages 取出连接上所有已投递的消息
func readMessages(t *testing.T, c *Conn) []Message {
	t.Helper()
	var msgs []Message
	for {
		select {
		case data := <-c.Send:
			var m Message
			require.NoError(t, json.Unmarshal(data, &m))
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

// decodePayload 解码消息负载
func decodePayload(t *testing.T, m Message, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(m.Payload, v))
}

// filterByType 过滤指定类型的消息
func filterByType(msgs []Message, msgType string) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func TestLoginWaiting(t *testing.T) {
	s, _, _, _ := newTestServer()

	conn := login(t, s, "user1")

	msgs := readMessages(t, conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, MsgWaiting, msgs[0].Type)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.True(t, s.queue.Contains("user1"))
	assert.NotNil(t, s.registry.Lookup("user1"))
}

func TestMatchStart(t *testing.T) {
	s, users, _, _ := newTestServer()

	conn1 := login(t, s, "user1")
	conn2 := login(t, s, "user2")

	msgs1 := readMessages(t, conn1)
	require.Len(t, msgs1, 2)
	assert.Equal(t, MsgWaiting, msgs1[0].Type)
	assert.Equal(t, MsgGameStart, msgs1[1].Type)

	msgs2 := readMessages(t, conn2)
	require.Len(t, msgs2, 1)
	assert.Equal(t, MsgGameStart, msgs2[0].Type)

	// 开局字段以各自视角镜像
	var start1, start2 GameStartPayload
	decodePayload(t, msgs1[1], &start1)
	decodePayload(t, msgs2[0], &start2)
	assert.Equal(t, "玩家user2", start1.Opponent.DisplayName)
	assert.Equal(t, "玩家user1", start2.Opponent.DisplayName)
	assert.Equal(t, 100, start1.Health)
	assert.Equal(t, 100, start1.OpponentHealth)

	// 双方各扣除入场费
	assert.Equal(t, int64(90), users.users["user1"].Coins)
	assert.Equal(t, int64(90), users.users["user2"].Coins)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 0, s.queue.Len())
	room := s.rooms.Get(RoomID("user1", "user2"))
	require.NotNil(t, room)
	assert.False(t, room.Terminal)
	assert.Equal(t, "user2", s.registry.Lookup("user1").OpponentID)
	assert.Equal(t, "user1", s.registry.Lookup("user2").OpponentID)
}

func TestSameUserNeverMatchesSelf(t *testing.T) {
	s, _, _, _ := newTestServer()

	login(t, s, "user1")
	conn2 := login(t, s, "user1")

	msgs := readMessages(t, conn2)
	require.Len(t, msgs, 1)
	assert.Equal(t, MsgWaiting, msgs[0].Type)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 1, s.queue.Len())
	assert.Equal(t, 1, s.registry.Len())
	assert.Same(t, conn2, s.registry.Lookup("user1").Conn)
}

func TestMatchCancelledInsufficientCoins(t *testing.T) {
	s, users, _, _ := newTestServer()
	users.users["user2"].Coins = 5

	conn1 := login(t, s, "user1")
	conn2 := login(t, s, "user2")

	cancelled1 := filterByType(readMessages(t, conn1), MsgGameCancelled)
	cancelled2 := filterByType(readMessages(t, conn2), MsgGameCancelled)
	require.Len(t, cancelled1, 1)
	require.Len(t, cancelled2, 1)

	var payload GameCancelledPayload
	decodePayload(t, cancelled1[0], &payload)
	assert.Contains(t, payload.Reason, "金币")

	// 未扣费，会话已移除
	assert.Equal(t, int64(100), users.users["user1"].Coins)
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 0, s.registry.Len())
	assert.Equal(t, 0, s.rooms.Len())
}

func TestMatchCancelledUnknownAirplane(t *testing.T) {
	s, _, _, _ := newTestServer()

	conn1 := &Conn{ID: "conn-a", Send: make(chan []byte, 64), IsAlive: true}
	s.handleMessage(conn1, mustMsg(t, MsgLogin, LoginPayload{
		UserID:  "user1",
		Loadout: LoadoutInfo{AirplaneTier: 9, AirplaneStyle: 9},
	}))
	login(t, s, "user2")

	cancelled := filterByType(readMessages(t, conn1), MsgGameCancelled)
	require.Len(t, cancelled, 1)

	var payload GameCancelledPayload
	decodePayload(t, cancelled[0], &payload)
	assert.Contains(t, payload.Reason, "战机")
}

func TestHitHealthUpdate(t *testing.T) {
	s, _, _, _ := newTestServer()

	conn1 := login(t, s, "user1")
	conn2 := login(t, s, "user2")
	readMessages(t, conn1)
	readMessages(t, conn2)

	s.handleMessage(conn1, mustMsg(t, MsgHit, HitPayload{Damage: 30}))

	msgs1 := readMessages(t, conn1)
	msgs2 := readMessages(t, conn2)
	require.Len(t, msgs1, 1)
	require.Len(t, msgs2, 1)

	var h1, h2 HealthUpdatePayload
	decodePayload(t, msgs1[0], &h1)
	decodePayload(t, msgs2[0], &h2)
	assert.Equal(t, 100, h1.Health)
	assert.Equal(t, 70, h1.OpponentHealth)
	assert.Equal(t, 70, h2.Health)
	assert.Equal(t, 100, h2.OpponentHealth)
}

func TestHitDeathSettlement(t *testing.T) {
	s, users, _, boards := newTestServer()

	conn1 := login(t, s, "user1")
	conn2 := login(t, s, "user2")
	readMessages(t, conn1)
	readMessages(t, conn2)

	// 三次40点伤害击杀对手
	for i := 0; i < 3; i++ {
		s.handleMessage(conn1, mustMsg(t, MsgHit, HitPayload{Damage: 40}))
	}

	msgs1 := readMessages(t, conn1)
	msgs2 := readMessages(t, conn2)

	over1 := filterByType(msgs1, MsgGameOverNotice)
	over2 := filterByType(msgs2, MsgGameOverNotice)
	require.Len(t, over1, 1)
	require.Len(t, over2, 1)

	var result1, result2 GameOverPayload
	decodePayload(t, over1[0], &result1)
	decodePayload(t, over2[0], &result2)
	assert.Equal(t, "win", result1.Result)
	assert.Equal(t, "lose", result2.Result)

	// 经济结算：入场费10，胜者+20，败者+5
	assert.Equal(t, int64(110), users.users["user1"].Coins)
	assert.Equal(t, int64(95), users.users["user2"].Coins)
	assert.Equal(t, 1, users.users["user1"].TotalWins)
	assert.Equal(t, 1, users.users["user2"].TotalLosses)

	// 排行榜各周期累加一次
	assert.Equal(t, 1, boards.increments["daily_test|user1|win"])
	assert.Equal(t, 1, boards.increments["daily_test|user2|loss"])

	// 房间与会话已拆除
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 0, s.registry.Len())
	assert.Equal(t, 0, s.rooms.Len())
}

func TestHitAfterDeathIgnored(t *testing.T) {
	s, users, _, boards := newTestServer()

	conn1 := login(t, s, "user1")
	conn2 := login(t, s, "user2")

	s.handleMessage(conn1, mustMsg(t, MsgHit, HitPayload{Damage: 100}))
	readMessages(t, conn1)
	readMessages(t, conn2)

	// 对局结束后的命中不再产生任何效果
	s.handleMessage(conn1, mustMsg(t, MsgHit, HitPayload{Damage: 100}))

	assert.Empty(t, readMessages(t, conn1))
	assert.Empty(t, readMessages(t, conn2))
	assert.Equal(t, int64(110), users.users["user1"].Coins)
	assert.Equal(t, 1, users.users["user1"].TotalWins)
	assert.Equal(t, 1, boards.increments["daily_test|user1|win"])
}

func TestShieldAbsorbsDamage(t *testing.T) {
	s, _, _, _ := newTestServer()

	conn1 := login(t, s, "user1")
	conn2 := login(t, s, "user2")
	readMessages(t, conn1)
	readMessages(t, conn2)

	s.mu.Lock()
	room := s.rooms.Get(RoomID("user1", "user2"))
	require.NotNil(t, room)
	room.SideOf("user2").ShieldUntil = time.Now().Add(time.Minute)
	s.mu.Unlock()

	s.handleMessage(conn1, mustMsg(t, MsgHit, HitPayload{Damage: 50}))

	msgs2 := readMessages(t, conn2)
	require.Len(t, msgs2, 1)

	var h HealthUpdatePayload
	decodePayload(t, msgs2[0], &h)
	assert.Equal(t, 100, h.Health)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 100, room.SideOf("user2").Health)
	assert.False(t, room.Terminal)
}

func TestPotionShield(t *testing.T) {
	s, users, _, _ := newTestServer()

	conn1 := login(t, s, "user1")
	conn2 := login(t, s, "user2")
	readMessages(t, conn1)
	readMessages(t, conn2)

	s.handleMessage(conn1, mustMsg(t, MsgPotionActivate, PotionPayload{ConsumableID: "shield_potion"}))

	// 库存扣减，护盾生效
	assert.Equal(t, 2, users.owned["user1|shield_potion"])
	s.mu.Lock()
	room := s.rooms.Get(RoomID("user1", "user2"))
	assert.True(t, room.SideOf("user1").ShieldActive(time.Now()))
	s.mu.Unlock()

	// 对手收到效果通知（仅名称）
	msgs2 := readMessages(t, conn2)
	require.Len(t, msgs2, 1)
	assert.Equal(t, MsgOpponentPotion, msgs2[0].Type)

	var p OpponentPotionPayload
	decodePayload(t, msgs2[0], &p)
	assert.Equal(t, "护盾药剂", p.Name)
}

func TestPotionHeal(t *testing.T) {
	s, _, _, _ := newTestServer()

	conn1 := login(t, s, "user1")
	conn2 := login(t, s, "user2")

	s.handleMessage(conn2, mustMsg(t, MsgHit, HitPayload{Damage: 30}))
	readMessages(t, conn1)
	readMessages(t, conn2)

	s.handleMessage(conn1, mustMsg(t, MsgPotionActivate, PotionPayload{ConsumableID: "heal_potion"}))

	// 血量恢复满并同步
	msgs1 := filterByType(readMessages(t, conn1), MsgHealthUpdate)
	require.Len(t, msgs1, 1)

	var h HealthUpdatePayload
	decodePayload(t, msgs1[0], &h)
	assert.Equal(t, 100, h.Health)
}

func TestPotionWithoutStock(t *testing.T) {
	s, users, _, _ := newTestServer()
	users.owned["user1|shield_potion"] = 0

	conn1 := login(t, s, "user1")
	conn2 := login(t, s, "user2")
	readMessages(t, conn1)
	readMessages(t, conn2)

	s.handleMessage(conn1, mustMsg(t, MsgPotionActivate, PotionPayload{ConsumableID: "shield_potion"}))

	// 没有库存时不产生任何效果
	assert.Empty(t, readMessages(t, conn2))
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.rooms.Get(RoomID("user1", "user2"))
	assert.False(t, room.SideOf("user1").ShieldActive(time.Now()))
}

func TestForfeit(t *testing.T) {
	s, users, _, _ := newTestServer()

	conn1 := login(t, s, "user1")
	conn2 := login(t, s, "user2")
	readMessages(t, conn1)
	readMessages(t, conn2)

	s.handleMessage(conn1, mustMsg(t, MsgGameOver, nil))

	over1 := filterByType(readMessages(t, conn1), MsgGameOverNotice)
	over2 := filterByType(readMessages(t, conn2), MsgGameOverNotice)
	require.Len(t, over1, 1)
	require.Len(t, over2, 1)

	var result1, result2 GameOverPayload
	decodePayload(t, over1[0], &result1)
	decodePayload(t, over2[0], &result2)
	assert.Equal(t, "lose", result1.Result)
	assert.Equal(t, "win", result2.Result)

	// 认输不做经济与战绩结算
	assert.Equal(t, int64(90), users.users["user1"].Coins)
	assert.Equal(t, int64(90), users.users["user2"].Coins)
	assert.Equal(t, 0, users.users["user2"].TotalWins)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 0, s.registry.Len())
	assert.Equal(t, 0, s.rooms.Len())
}

func TestDisconnectTeardown(t *testing.T) {
	s, _, _, _ := newTestServer()

	conn1 := login(t, s, "user1")
	conn2 := login(t, s, "user2")
	readMessages(t, conn1)
	readMessages(t, conn2)

	s.mu.Lock()
	sess := s.registry.Lookup("user1")
	require.NotNil(t, sess)
	s.teardownSessionLocked(sess)
	s.mu.Unlock()

	// 留存方收到对手离线通知，双方会话与房间被清理
	msgs2 := readMessages(t, conn2)
	require.Len(t, msgs2, 1)
	assert.Equal(t, MsgOpponentDisconnected, msgs2[0].Type)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 0, s.registry.Len())
	assert.Equal(t, 0, s.rooms.Len())
}

func TestWaitingPlayerDisconnect(t *testing.T) {
	s, _, _, _ := newTestServer()

	login(t, s, "user1")

	s.mu.Lock()
	s.teardownSessionLocked(s.registry.Lookup("user1"))
	s.mu.Unlock()

	// 排队者离开后，下一个登录者继续等待
	conn2 := login(t, s, "user2")
	msgs := readMessages(t, conn2)
	require.Len(t, msgs, 1)
	assert.Equal(t, MsgWaiting, msgs[0].Type)
}

func TestRelayMoveAndShoot(t *testing.T) {
	s, _, _, _ := newTestServer()

	conn1 := login(t, s, "user1")
	conn2 := login(t, s, "user2")
	readMessages(t, conn1)
	readMessages(t, conn2)

	s.handleMessage(conn1, mustMsg(t, MsgMove, MovePayload{PercentX: 0.25, PercentY: 0.75}))
	s.handleMessage(conn1, mustMsg(t, MsgShoot, ShootPayload{Source: "main_gun"}))

	msgs2 := readMessages(t, conn2)
	require.Len(t, msgs2, 2)
	assert.Equal(t, MsgOpponentMove, msgs2[0].Type)
	assert.Equal(t, MsgOpponentShoot, msgs2[1].Type)

	var move MovePayload
	decodePayload(t, msgs2[0], &move)
	assert.Equal(t, 0.25, move.PercentX)
	assert.Equal(t, 0.75, move.PercentY)

	var shoot ShootPayload
	decodePayload(t, msgs2[1], &shoot)
	assert.Equal(t, "main_gun", shoot.Source)
}

func TestRelayDroppedOutsideBattle(t *testing.T) {
	s, _, _, _ := newTestServer()

	conn1 := login(t, s, "user1")
	readMessages(t, conn1)

	// 未进入对局时转发消息被丢弃
	s.handleMessage(conn1, mustMsg(t, MsgMove, MovePayload{PercentX: 0.5, PercentY: 0.5}))
	assert.Empty(t, readMessages(t, conn1))
}
