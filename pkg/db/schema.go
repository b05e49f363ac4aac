// schema.go

package db

// 统一的数据库表结构定义

// CreateAllTablesSQL 创建所有表的SQL语句
const CreateAllTablesSQL = `
-- 用户表
CREATE TABLE IF NOT EXISTS users (
    id VARCHAR(50) PRIMARY KEY,
    username VARCHAR(50) UNIQUE NOT NULL,
    password VARCHAR(100) NOT NULL,
    display_name VARCHAR(50) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,

    -- 经济与战绩
    coins BIGINT DEFAULT 0,
    total_wins INT DEFAULT 0,
    total_losses INT DEFAULT 0
);

-- 战机表（tier + style 唯一确定一种机型）
CREATE TABLE IF NOT EXISTS airplanes (
    id SERIAL PRIMARY KEY,
    tier INT NOT NULL,
    style INT NOT NULL,
    name VARCHAR(50) NOT NULL,
    base_health INT NOT NULL,
    bullet_speed DECIMAL(8,2) NOT NULL,
    damage INT NOT NULL,
    price BIGINT DEFAULT 0,
    UNIQUE (tier, style)
);

-- 消耗品表
CREATE TABLE IF NOT EXISTS consumables (
    id VARCHAR(50) PRIMARY KEY,
    name VARCHAR(50) NOT NULL,
    effect_kind VARCHAR(20) NOT NULL, -- shield, heal
    price BIGINT DEFAULT 0
);

-- 用户拥有的战机
CREATE TABLE IF NOT EXISTS user_airplanes (
    user_id VARCHAR(50) REFERENCES users(id) ON DELETE CASCADE,
    airplane_id INT REFERENCES airplanes(id) ON DELETE CASCADE,
    unlocked_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, airplane_id)
);

-- 用户拥有的消耗品数量
CREATE TABLE IF NOT EXISTS user_consumables (
    user_id VARCHAR(50) REFERENCES users(id) ON DELETE CASCADE,
    consumable_id VARCHAR(50) REFERENCES consumables(id) ON DELETE CASCADE,
    quantity INT DEFAULT 0,
    PRIMARY KEY (user_id, consumable_id)
);

-- 排行榜周期表（日榜/周榜/月榜各自独立累计）
CREATE TABLE IF NOT EXISTS leaderboard_periods (
    id VARCHAR(50) PRIMARY KEY,
    name VARCHAR(50) NOT NULL,
    period_type VARCHAR(20) NOT NULL, -- daily, weekly, monthly
    starts_at TIMESTAMP WITH TIME ZONE NOT NULL,
    ends_at TIMESTAMP WITH TIME ZONE NOT NULL
);

-- 排行榜排名表
CREATE TABLE IF NOT EXISTS leaderboard_rankings (
    period_id VARCHAR(50) REFERENCES leaderboard_periods(id) ON DELETE CASCADE,
    user_id VARCHAR(50) REFERENCES users(id) ON DELETE CASCADE,
    wins INT DEFAULT 0,
    losses INT DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (period_id, user_id)
);

-- 创建索引以提高查询性能
CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE INDEX IF NOT EXISTS idx_airplanes_tier_style ON airplanes(tier, style);
CREATE INDEX IF NOT EXISTS idx_user_consumables_user_id ON user_consumables(user_id);
CREATE INDEX IF NOT EXISTS idx_leaderboard_rankings_period_id ON leaderboard_rankings(period_id);
CREATE INDEX IF NOT EXISTS idx_leaderboard_periods_window ON leaderboard_periods(starts_at, ends_at);
`

// InitAllTables 初始化所有数据库表
func InitAllTables() error {
	_, err := DB.Exec(CreateAllTablesSQL)
	if err != nil {
		return err
	}
	return nil
}
