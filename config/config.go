// config.go

package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config 服务器配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig 服务器基本配置
type ServerConfig struct {
	BattlePort  int    `mapstructure:"battle_port"`
	GatewayPort int    `mapstructure:"gateway_port"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret    string `mapstructure:"jwt_secret"`
	TokenTTLHour int    `mapstructure:"token_ttl_hours"`
}

// GameConfig 对战配置
type GameConfig struct {
	MatchEntryCost   int64 `mapstructure:"match_entry_cost"`   // 开局入场费(金币)
	WinCoinReward    int64 `mapstructure:"win_coin_reward"`    // 胜利奖励(金币)
	LoseCoinReward   int64 `mapstructure:"lose_coin_reward"`   // 失败安慰奖励(金币)
	ShieldDurationMS int   `mapstructure:"shield_duration_ms"` // 护盾持续时间(毫秒)
	DefaultViewportW int   `mapstructure:"default_viewport_w"` // 默认屏幕宽度
	DefaultViewportH int   `mapstructure:"default_viewport_h"` // 默认屏幕高度
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig Config
)

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) error {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	// 对战参数默认值
	viper.SetDefault("game.match_entry_cost", 10)
	viper.SetDefault("game.win_coin_reward", 20)
	viper.SetDefault("game.lose_coin_reward", 5)
	viper.SetDefault("game.shield_duration_ms", 5000)
	viper.SetDefault("game.default_viewport_w", 1920)
	viper.SetDefault("game.default_viewport_h", 1080)
	viper.SetDefault("auth.token_ttl_hours", 24)

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("无法读取配置文件: %w", err)
	}

	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		return fmt.Errorf("无法解析配置文件: %w", err)
	}

	return nil
}

// GetDSN 获取PostgreSQL连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetRedisAddr 获取Redis连接地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
