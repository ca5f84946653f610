package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type PriceList struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Code      string       `gorm:"not null;uniqueIndex" json:"code"`
	Name      string       `gorm:"not null" json:"name"`
	IsDefault bool         `gorm:"not null;index" json:"is_default"`
	IsActive  bool         `gorm:"not null" json:"is_active"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (PriceList) TableName() string { return "price_lists" }

// PriceListTier is the unit price of an item on a list from MinQuantity units upward.
type PriceListTier struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	PriceListID snowflake.ID    `gorm:"not null;uniqueIndex:ux_price_list_tiers_list_item_qty,priority:1" json:"price_list_id"`
	ItemID      snowflake.ID    `gorm:"not null;uniqueIndex:ux_price_list_tiers_list_item_qty,priority:2" json:"item_id"`
	MinQuantity int64           `gorm:"not null;uniqueIndex:ux_price_list_tiers_list_item_qty,priority:3" json:"min_quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"unit_price"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

func (PriceListTier) TableName() string { return "price_list_tiers" }
