// stores.go

package battle

import "github.com/jacl-coder/SkyDuel-Server/internal/models"

// UserStore 战斗结算所需的用户持久化接口
type UserStore interface {
	// LoadUser 按ID加载用户，不存在时返回 (nil, nil)
	LoadUser(userID string) (*models.User, error)
	// AdjustCoins 调整用户金币余额
	AdjustCoins(userID string, delta int64) error
	// IncrementWinLoss 累加用户总胜场或总负场
	IncrementWinLoss(userID string, isWin bool) error
	// DecrementOwnedConsumable 扣减一件消耗品，数量不足时返回错误
	DecrementOwnedConsumable(userID, consumableID string) error
}

// Catalog 战机与消耗品目录接口
type Catalog interface {
	// ResolveAirplane 按 tier/style 解析战机，不存在时返回 (nil, nil)
	ResolveAirplane(tier, style int) (*models.Airplane, error)
	// ResolveConsumable 按ID解析消耗品，不存在时返回 (nil, nil)
	ResolveConsumable(consumableID string) (*models.Consumable, error)
}

// LeaderboardStore 排行榜持久化接口
type LeaderboardStore interface {
	// ListActivePeriods 查询当前活跃的排行榜周期
	ListActivePeriods() ([]models.LeaderboardPeriod, error)
	// UpsertRankingIncrement 为指定周期累加一次战绩
	UpsertRankingIncrement(periodID, userID string, isWin bool) error
}

// RankingMirror 排行榜缓存镜像接口，可选依赖（允许为nil）
type RankingMirror interface {
	// IncrRanking 在缓存榜单中累加一次战绩
	IncrRanking(periodID, userID string, isWin bool) error
	// UpdateUserInfo 更新缓存的用户展示信息
	UpdateUserInfo(userID, displayName string) error
}
