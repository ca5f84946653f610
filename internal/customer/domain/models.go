package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Customer struct {
	ID                  snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name                string            `gorm:"not null" json:"name"`
	Email               string            `gorm:"not null" json:"email"`
	AssignedPriceListID *snowflake.ID     `gorm:"index" json:"assigned_price_list_id,omitempty"`
	CustomerGroupID     *snowflake.ID     `gorm:"index" json:"customer_group_id,omitempty"`
	IsActive            bool              `gorm:"not null" json:"is_active"`
	Metadata            datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt           time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"not null" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

type CustomerGroup struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Code      string       `gorm:"not null;uniqueIndex" json:"code"`
	Name      string       `gorm:"not null" json:"name"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (CustomerGroup) TableName() string { return "customer_groups" }
