package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jacl-coder/SkyDuel-Server/pkg/db"
)

// RedisLeaderboard Redis排行榜镜像
type RedisLeaderboard struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisLeaderboard 创建Redis排行榜镜像
func NewRedisLeaderboard() *RedisLeaderboard {
	return &RedisLeaderboard{
		client: db.RedisClient,
		ctx:    context.Background(),
	}
}

// 排行榜Redis键名
const (
	// PeriodWinsKeyFormat 周期胜场榜键名格式
	PeriodWinsKeyFormat = "leaderboard:period:%s:wins"

	// UserInfoPrefix 用户详细信息键前缀
	UserInfoPrefix = "user:info:"

	// LeaderboardCacheTTL 排行榜缓存时间
	LeaderboardCacheTTL = 5 * time.Minute
)

// periodWinsKey 获取周期胜场榜键名
func periodWinsKey(periodID string) string {
	return fmt.Sprintf(PeriodWinsKeyFormat, periodID)
}

// IncrRanking 在周期胜场榜中累加一次战绩（仅胜场计入榜单分数）
func (rl *RedisLeaderboard) IncrRanking(periodID, userID string, isWin bool) error {
	if !isWin {
		return nil
	}
	return rl.client.ZIncrBy(rl.ctx, periodWinsKey(periodID), 1, userID).Err()
}

// TopWins 获取周期胜场榜前N名（按胜场降序）
func (rl *RedisLeaderboard) TopWins(periodID string, limit int) ([]RankingEntry, error) {
	members, err := rl.client.ZRevRangeWithScores(rl.ctx, periodWinsKey(periodID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	var entries []RankingEntry
	for i, member := range members {
		userID, ok := member.Member.(string)
		if !ok {
			continue
		}

		entry := RankingEntry{
			PeriodID: periodID,
			UserID:   userID,
			Wins:     int(member.Score),
			Rank:     i + 1,
		}

		// 补充用户展示信息
		if info, err := rl.getUserInfo(userID); err == nil {
			entry.DisplayName = info.DisplayName
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// cachedUserInfo 缓存的用户展示信息
type cachedUserInfo struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// UpdateUserInfo 更新缓存的用户展示信息
func (rl *RedisLeaderboard) UpdateUserInfo(userID, displayName string) error {
	key := UserInfoPrefix + userID

	data, err := json.Marshal(cachedUserInfo{UserID: userID, DisplayName: displayName})
	if err != nil {
		return err
	}

	return rl.client.Set(rl.ctx, key, data, LeaderboardCacheTTL).Err()
}

// getUserInfo 从Redis获取用户展示信息
func (rl *RedisLeaderboard) getUserInfo(userID string) (*cachedUserInfo, error) {
	key := UserInfoPrefix + userID

	data, err := rl.client.Get(rl.ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var info cachedUserInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// RefreshPeriod 从数据库重新加载指定周期的榜单
func (rl *RedisLeaderboard) RefreshPeriod(periodID string) error {
	rows, err := db.DB.Query(
		`SELECT r.user_id, u.display_name, r.wins
		 FROM leaderboard_rankings r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.period_id = $1`,
		periodID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	// 清空现有榜单
	key := periodWinsKey(periodID)
	rl.client.Del(rl.ctx, key)

	// 重新填充
	for rows.Next() {
		var userID, displayName string
		var wins int
		if err := rows.Scan(&userID, &displayName, &wins); err != nil {
			continue
		}

		rl.client.ZAdd(rl.ctx, key, &redis.Z{Score: float64(wins), Member: userID})
		rl.UpdateUserInfo(userID, displayName)
	}

	return rows.Err()
}
