// leaderboard.go

package models

import (
	"time"

	"github.com/jacl-coder/SkyDuel-Server/pkg/db"
)

// PeriodType 排行榜周期类型
type PeriodType string

const (
	// PeriodDaily 日榜
	PeriodDaily PeriodType = "daily"
	// PeriodWeekly 周榜
	PeriodWeekly PeriodType = "weekly"
	// PeriodMonthly 月榜
	PeriodMonthly PeriodType = "monthly"
)

// LeaderboardPeriod 排行榜周期
type LeaderboardPeriod struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	PeriodType PeriodType `json:"period_type"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     time.Time  `json:"ends_at"`
}

// RankingEntry 排行榜条目
type RankingEntry struct {
	PeriodID    string `json:"period_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Rank        int    `json:"rank"`
}

// LeaderboardStore 排行榜持久化存储
type LeaderboardStore struct{}

// NewLeaderboardStore 创建排行榜存储
func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{}
}

// ListActivePeriods 查询当前处于活跃窗口内的排行榜周期
func (s *LeaderboardStore) ListActivePeriods() ([]LeaderboardPeriod, error) {
	rows, err := db.DB.Query(
		`SELECT id, name, period_type, starts_at, ends_at
		 FROM leaderboard_periods
		 WHERE starts_at <= NOW() AND ends_at > NOW()
		 ORDER BY starts_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []LeaderboardPeriod
	for rows.Next() {
		var p LeaderboardPeriod
		if err := rows.Scan(&p.ID, &p.Name, &p.PeriodType, &p.StartsAt, &p.EndsAt); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// UpsertRankingIncrement 为指定周期累加一次胜场或负场（无记录时先插入零值行）
func (s *LeaderboardStore) UpsertRankingIncrement(periodID, userID string, isWin bool) error {
	winDelta, lossDelta := 0, 1
	if isWin {
		winDelta, lossDelta = 1, 0
	}

	_, err := db.DB.Exec(
		`INSERT INTO leaderboard_rankings (period_id, user_id, wins, losses, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (period_id, user_id) DO UPDATE
		 SET wins = leaderboard_rankings.wins + $3,
		     losses = leaderboard_rankings.losses + $4,
		     updated_at = NOW()`,
		periodID, userID, winDelta, lossDelta,
	)
	return err
}

// TopRankings 查询指定周期按胜场排序的前N名
func (s *LeaderboardStore) TopRankings(periodID string, limit int) ([]RankingEntry, error) {
	rows, err := db.DB.Query(
		`SELECT r.period_id, r.user_id, u.display_name, r.wins, r.losses
		 FROM leaderboard_rankings r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.period_id = $1
		 ORDER BY r.wins DESC, r.losses ASC
		 LIMIT $2`,
		periodID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []RankingEntry
	rank := 0
	for rows.Next() {
		var e RankingEntry
		if err := rows.Scan(&e.PeriodID, &e.UserID, &e.DisplayName, &e.Wins, &e.Losses); err != nil {
			return nil, err
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
