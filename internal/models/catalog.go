// catalog.go

package models

import (
	"database/sql"

	"github.com/jacl-coder/SkyDuel-Server/pkg/db"
)

// Airplane 战机模型
type Airplane struct {
	ID          int     `json:"id"`
	Tier        int     `json:"tier"`
	Style       int     `json:"style"`
	Name        string  `json:"name"`
	BaseHealth  int     `json:"base_health"`
	BulletSpeed float64 `json:"bullet_speed"`
	Damage      int     `json:"damage"`
	Price       int64   `json:"price"`
}

// EffectKind 消耗品效果类型
type EffectKind string

const (
	// EffectShield 护盾效果
	EffectShield EffectKind = "shield"
	// EffectHeal 治疗效果
	EffectHeal EffectKind = "heal"
)

// Consumable 消耗品模型
type Consumable struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	EffectKind EffectKind `json:"effect_kind"`
	Price      int64      `json:"price"`
}

// CatalogStore 战机/消耗品目录
type CatalogStore struct{}

// NewCatalogStore 创建目录存储
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{}
}

// ResolveAirplane 按 tier/style 解析战机，不存在时返回 (nil, nil)
func (s *CatalogStore) ResolveAirplane(tier, style int) (*Airplane, error) {
	var a Airplane
	err := db.DB.QueryRow(
		`SELECT id, tier, style, name, base_health, bullet_speed, damage, price
		 FROM airplanes WHERE tier = $1 AND style = $2`,
		tier, style,
	).Scan(&a.ID, &a.Tier, &a.Style, &a.Name, &a.BaseHealth, &a.BulletSpeed, &a.Damage, &a.Price)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// ResolveConsumable 按ID解析消耗品，不存在时返回 (nil, nil)
func (s *CatalogStore) ResolveConsumable(consumableID string) (*Consumable, error) {
	var c Consumable
	err := db.DB.QueryRow(
		"SELECT id, name, effect_kind, price FROM consumables WHERE id = $1",
		consumableID,
	).Scan(&c.ID, &c.Name, &c.EffectKind, &c.Price)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ListAirplanes 查询全部战机
func (s *CatalogStore) ListAirplanes() ([]Airplane, error) {
	rows, err := db.DB.Query(
		`SELECT id, tier, style, name, base_health, bullet_speed, damage, price
		 FROM airplanes ORDER BY tier, style`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var airplanes []Airplane
	for rows.Next() {
		var a Airplane
		if err := rows.Scan(&a.ID, &a.Tier, &a.Style, &a.Name, &a.BaseHealth, &a.BulletSpeed, &a.Damage, &a.Price); err != nil {
			return nil, err
		}
		airplanes = append(airplanes, a)
	}
	return airplanes, rows.Err()
}

// ListConsumables 查询全部消耗品
func (s *CatalogStore) ListConsumables() ([]Consumable, error) {
	rows, err := db.DB.Query("SELECT id, name, effect_kind, price FROM consumables ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var consumables []Consumable
	for rows.Next() {
		var c Consumable
		if err := rows.Scan(&c.ID, &c.Name, &c.EffectKind, &c.Price); err != nil {
			return nil, err
		}
		consumables = append(consumables, c)
	}
	return consumables, rows.Err()
}
