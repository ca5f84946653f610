package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Scope is the kind of entity a discount rule targets.
type Scope string

const (
	ScopeCustomer      Scope = "customer"
	ScopeCustomerGroup Scope = "customer_group"
	ScopeItem          Scope = "item"
	ScopeItemFamily    Scope = "item_family"
	ScopeGlobal        Scope = "global"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeCustomer, ScopeCustomerGroup, ScopeItem, ScopeItemFamily, ScopeGlobal:
		return true
	default:
		return false
	}
}

// Kind is how a rule's value reduces the running price.
type Kind string

const (
	// KindPercentage takes Value (a fraction in (0, 1]) of the running price.
	KindPercentage Kind = "percentage"
	// KindFixedPerUnit takes Value currency units off, never below zero.
	KindFixedPerUnit Kind = "fixed_per_unit"
)

func (k Kind) Valid() bool {
	return k == KindPercentage || k == KindFixedPerUnit
}

type DiscountRule struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	Scope         Scope           `gorm:"type:varchar(32);not null;index:idx_discount_rules_scope_target,priority:1" json:"scope"`
	ScopeTargetID *snowflake.ID   `gorm:"index:idx_discount_rules_scope_target,priority:2" json:"scope_target_id,omitempty"`
	Kind          Kind            `gorm:"type:varchar(32);not null" json:"kind"`
	Value         decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"value"`
	Priority      int             `gorm:"not null" json:"priority"`
	ValidFrom     *time.Time      `json:"valid_from,omitempty"`
	ValidUntil    *time.Time      `json:"valid_until,omitempty"`
	IsActive      bool            `gorm:"not null;index" json:"is_active"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

func (DiscountRule) TableName() string { return "discount_rules" }

// InWindow reports whether t falls inside the rule's inclusive validity window.
func (r DiscountRule) InWindow(t time.Time) bool {
	if r.ValidFrom != nil && t.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && t.After(*r.ValidUntil) {
		return false
	}
	return true
}
