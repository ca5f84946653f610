package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, list *PriceList) error
	Update(ctx context.Context, db *gorm.DB, list *PriceList) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PriceList, error)
	FindDefault(ctx context.Context, db *gorm.DB) (*PriceList, error)
	List(ctx context.Context, db *gorm.DB) ([]PriceList, error)
	ClearDefault(ctx context.Context, db *gorm.DB, exceptID snowflake.ID) error

	InsertTier(ctx context.Context, db *gorm.DB, tier *PriceListTier) error
	FindTierByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PriceListTier, error)
	DeleteTier(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ListTiers(ctx context.Context, db *gorm.DB, priceListID snowflake.ID, itemID *snowflake.ID) ([]PriceListTier, error)
}
