// user.go

package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jacl-coder/SkyDuel-Server/pkg/db"
)

// User 用户模型
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Password    string    `json:"-"` // 不序列化密码
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 经济与战绩
	Coins       int64 `json:"coins"`
	TotalWins   int   `json:"total_wins"`
	TotalLosses int   `json:"total_losses"`
}

// OwnedConsumable 用户拥有的消耗品
type OwnedConsumable struct {
	ConsumableID string `json:"consumable_id"`
	Quantity     int    `json:"quantity"`
}

// UserStore 用户持久化存储
type UserStore struct{}

// NewUserStore 创建用户存储
func NewUserStore() *UserStore {
	return &UserStore{}
}

const userColumns = `id, username, password, display_name, created_at, updated_at, coins, total_wins, total_losses`

// scanUser 扫描单行用户记录
func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.Password, &u.DisplayName,
		&u.CreatedAt, &u.UpdatedAt, &u.Coins, &u.TotalWins, &u.TotalLosses,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // 用户不存在
		}
		return nil, err
	}
	return &u, nil
}

// LoadUser 按ID加载用户，不存在时返回 (nil, nil)
func (s *UserStore) LoadUser(userID string) (*User, error) {
	row := db.DB.QueryRow("SELECT "+userColumns+" FROM users WHERE id = $1", userID)
	return scanUser(row)
}

// LoadUserByUsername 按用户名加载用户
func (s *UserStore) LoadUserByUsername(username string) (*User, error) {
	row := db.DB.QueryRow("SELECT "+userColumns+" FROM users WHERE username = $1", username)
	return scanUser(row)
}

// CreateUser 创建用户
func (s *UserStore) CreateUser(u *User) error {
	_, err := db.DB.Exec(
		`INSERT INTO users (id, username, password, display_name, coins, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
		u.ID, u.Username, u.Password, u.DisplayName, u.Coins,
	)
	if err != nil {
		return fmt.Errorf("创建用户失败: %w", err)
	}
	return nil
}

// SaveUser 保存用户记录
func (s *UserStore) SaveUser(u *User) error {
	_, err := db.DB.Exec(
		`UPDATE users SET display_name = $2, coins = $3, total_wins = $4, total_losses = $5, updated_at = NOW()
		 WHERE id = $1`,
		u.ID, u.DisplayName, u.Coins, u.TotalWins, u.TotalLosses,
	)
	return err
}

// AdjustCoins 调整用户金币余额
func (s *UserStore) AdjustCoins(userID string, delta int64) error {
	_, err := db.DB.Exec(
		"UPDATE users SET coins = coins + $2, updated_at = NOW() WHERE id = $1",
		userID, delta,
	)
	return err
}

// IncrementWinLoss 累加胜场或负场
func (s *UserStore) IncrementWinLoss(userID string, isWin bool) error {
	var err error
	if isWin {
		_, err = db.DB.Exec(
			"UPDATE users SET total_wins = total_wins + 1, updated_at = NOW() WHERE id = $1", userID)
	} else {
		_, err = db.DB.Exec(
			"UPDATE users SET total_losses = total_losses + 1, updated_at = NOW() WHERE id = $1", userID)
	}
	return err
}

// DecrementOwnedConsumable 扣减一件用户拥有的消耗品
func (s *UserStore) DecrementOwnedConsumable(userID, consumableID string) error {
	result, err := db.DB.Exec(
		`UPDATE user_consumables SET quantity = quantity - 1
		 WHERE user_id = $1 AND consumable_id = $2 AND quantity > 0`,
		userID, consumableID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("用户 %s 没有可用的消耗品 %s", userID, consumableID)
	}
	return nil
}

// GrantConsumable 增加用户拥有的消耗品数量
func (s *UserStore) GrantConsumable(userID, consumableID string, count int) error {
	_, err := db.DB.Exec(
		`INSERT INTO user_consumables (user_id, consumable_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, consumable_id) DO UPDATE SET quantity = user_consumables.quantity + $3`,
		userID, consumableID, count,
	)
	return err
}

// GrantAirplane 解锁一架战机
func (s *UserStore) GrantAirplane(userID string, airplaneID int) error {
	_, err := db.DB.Exec(
		`INSERT INTO user_airplanes (user_id, airplane_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, airplane_id) DO NOTHING`,
		userID, airplaneID,
	)
	return err
}

// OwnedConsumables 查询用户拥有的全部消耗品
func (s *UserStore) OwnedConsumables(userID string) ([]OwnedConsumable, error) {
	rows, err := db.DB.Query(
		"SELECT consumable_id, quantity FROM user_consumables WHERE user_id = $1 AND quantity > 0", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owned []OwnedConsumable
	for rows.Next() {
		var oc OwnedConsumable
		if err := rows.Scan(&oc.ConsumableID, &oc.Quantity); err != nil {
			return nil, err
		}
		owned = append(owned, oc)
	}
	return owned, rows.Err()
}

// OwnedAirplanes 查询用户已解锁的战机ID列表
func (s *UserStore) OwnedAirplanes(userID string) ([]int, error) {
	rows, err := db.DB.Query(
		"SELECT airplane_id FROM user_airplanes WHERE user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
