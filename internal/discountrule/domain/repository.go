package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rule *DiscountRule) error
	Update(ctx context.Context, db *gorm.DB, rule *DiscountRule) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*DiscountRule, error)
	List(ctx context.Context, db *gorm.DB, filter ListRuleFilter) ([]DiscountRule, error)
	// ListActive returns every rule flagged active. Validity windows are left to the caller.
	ListActive(ctx context.Context, db *gorm.DB) ([]DiscountRule, error)
}
