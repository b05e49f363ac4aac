// init_data.go

package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jacl-coder/SkyDuel-Server/config"
	"github.com/jacl-coder/SkyDuel-Server/internal/models"
	"github.com/jacl-coder/SkyDuel-Server/pkg/db"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	dataType := flag.String("type", "all", "初始化数据类型 (catalog, periods, accounts, all)")
	flag.Parse()

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库连接
	if err := db.InitPostgres(); err != nil {
		log.Fatalf("初始化PostgreSQL失败: %v", err)
	}
	defer db.Close()

	// 初始化数据库表
	if err := db.InitAllTables(); err != nil {
		log.Fatalf("初始化数据库表失败: %v", err)
	}
	log.Println("✓ 数据库表初始化完成")

	// 根据类型初始化数据
	switch *dataType {
	case "catalog":
		mustRun("目录数据", initCatalogData)
	case "periods":
		mustRun("排行榜周期", initLeaderboardPeriods)
	case "accounts":
		mustRun("测试账号", initTestAccounts)
	case "all":
		mustRun("目录数据", initCatalogData)
		mustRun("排行榜周期", initLeaderboardPeriods)
		mustRun("测试账号", initTestAccounts)
	default:
		log.Fatalf("未知的数据类型: %s", *dataType)
	}

	log.Println("✓ 数据初始化完成")
}

// mustRun 执行初始化步骤，失败时退出
func mustRun(name string, fn func() error) {
	if err := fn(); err != nil {
		log.Fatalf("初始化%s失败: %v", name, err)
	}
	log.Printf("✓ %s初始化完成", name)
}

// initCatalogData 初始化战机与消耗品目录
func initCatalogData() error {
	airplanes := []models.Airplane{
		{Tier: 1, Style: 1, Name: "隼式侦察机", BaseHealth: 100, BulletSpeed: 600, Damage: 10, Price: 0},
		{Tier: 1, Style: 2, Name: "燕式侦察机", BaseHealth: 90, BulletSpeed: 650, Damage: 11, Price: 0},
		{Tier: 2, Style: 1, Name: "鹰式战斗机", BaseHealth: 140, BulletSpeed: 700, Damage: 14, Price: 200},
		{Tier: 2, Style: 2, Name: "枭式战斗机", BaseHealth: 120, BulletSpeed: 780, Damage: 16, Price: 220},
		{Tier: 3, Style: 1, Name: "龙式重型机", BaseHealth: 200, BulletSpeed: 720, Damage: 20, Price: 500},
		{Tier: 3, Style: 2, Name: "凰式重型机", BaseHealth: 170, BulletSpeed: 820, Damage: 24, Price: 550},
	}

	for _, a := range airplanes {
		_, err := db.DB.Exec(
			`INSERT INTO airplanes (tier, style, name, base_health, bullet_speed, damage, price)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (tier, style) DO UPDATE
			 SET name = $3, base_health = $4, bullet_speed = $5, damage = $6, price = $7`,
			a.Tier, a.Style, a.Name, a.BaseHealth, a.BulletSpeed, a.Damage, a.Price,
		)
		if err != nil {
			return fmt.Errorf("写入战机 %s: %w", a.Name, err)
		}
	}

	consumables := []models.Consumable{
		{ID: "shield_potion", Name: "护盾药剂", EffectKind: models.EffectShield, Price: 30},
		{ID: "heal_potion", Name: "修复药剂", EffectKind: models.EffectHeal, Price: 50},
	}

	for _, c := range consumables {
		_, err := db.DB.Exec(
			`INSERT INTO consumables (id, name, effect_kind, price)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET name = $2, effect_kind = $3, price = $4`,
			c.ID, c.Name, c.EffectKind, c.Price,
		)
		if err != nil {
			return fmt.Errorf("写入消耗品 %s: %w", c.Name, err)
		}
	}

	return nil
}

// initLeaderboardPeriods 初始化当前的日榜、周榜与月榜周期
func initLeaderboardPeriods() error {
	now := time.Now()
	year, month, day := now.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	// 周一为一周起点
	weekday := int(today.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	weekStart := today.AddDate(0, 0, -(weekday - 1))
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())

	periods := []models.LeaderboardPeriod{
		{
			ID:         "daily_" + today.Format("20060102"),
			Name:       "日榜 " + today.Format("2006-01-02"),
			PeriodType: models.PeriodDaily,
			StartsAt:   today,
			EndsAt:     today.AddDate(0, 0, 1),
		},
		{
			ID:         "weekly_" + weekStart.Format("20060102"),
			Name:       "周榜 " + weekStart.Format("2006-01-02"),
			PeriodType: models.PeriodWeekly,
			StartsAt:   weekStart,
			EndsAt:     weekStart.AddDate(0, 0, 7),
		},
		{
			ID:         "monthly_" + monthStart.Format("200601"),
			Name:       "月榜 " + monthStart.Format("2006-01"),
			PeriodType: models.PeriodMonthly,
			StartsAt:   monthStart,
			EndsAt:     monthStart.AddDate(0, 1, 0),
		},
	}

	for _, p := range periods {
		_, err := db.DB.Exec(
			`INSERT INTO leaderboard_periods (id, name, period_type, starts_at, ends_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.PeriodType, p.StartsAt, p.EndsAt,
		)
		if err != nil {
			return fmt.Errorf("写入周期 %s: %w", p.ID, err)
		}
	}

	return nil
}

// initTestAccounts 初始化测试账号并发放初始物资
func initTestAccounts() error {
	users := models.NewUserStore()
	catalog := models.NewCatalogStore()

	accounts := []struct {
		username    string
		password    string
		displayName string
		coins       int64
	}{
		{"test1", "test123", "试飞员一号", 500},
		{"test2", "test123", "试飞员二号", 500},
	}

	for _, acc := range accounts {
		existing, err := users.LoadUserByUsername(acc.username)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		user := &models.User{
			ID:          uuid.New().String(),
			Username:    acc.username,
			Password:    fmt.Sprintf("%x", sha256.Sum256([]byte(acc.password))),
			DisplayName: acc.displayName,
			Coins:       acc.coins,
		}
		if err := users.CreateUser(user); err != nil {
			return err
		}

		// 解锁初始战机
		if plane, err := catalog.ResolveAirplane(1, 1); err == nil && plane != nil {
			if err := users.GrantAirplane(user.ID, plane.ID); err != nil {
				return err
			}
		}

		// 发放初始消耗品
		if err := users.GrantConsumable(user.ID, "shield_potion", 3); err != nil {
			return err
		}
		if err := users.GrantConsumable(user.ID, "heal_potion", 3); err != nil {
			return err
		}
	}

	return nil
}
