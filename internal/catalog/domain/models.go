package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Item struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Code      string            `gorm:"not null;uniqueIndex" json:"code"`
	Name      string            `gorm:"not null" json:"name"`
	ListPrice decimal.Decimal   `gorm:"type:numeric(18,4);not null" json:"list_price"`
	Cost      decimal.Decimal   `gorm:"type:numeric(18,4);not null" json:"cost"`
	FamilyID  *snowflake.ID     `gorm:"index" json:"family_id,omitempty"`
	IsActive  bool              `gorm:"not null" json:"is_active"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
}

func (Item) TableName() string { return "items" }

// ItemFamily groups items so one discount rule can target all of them.
type ItemFamily struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Code      string       `gorm:"not null;uniqueIndex" json:"code"`
	Name      string       `gorm:"not null" json:"name"`
	IsActive  bool         `gorm:"not null" json:"is_active"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (ItemFamily) TableName() string { return "item_families" }
