package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/pricewise/internal/catalog/domain"
	customerdomain "github.com/smallbiznis/pricewise/internal/customer/domain"
	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
	"gorm.io/gorm"
)

// Store is the read side of the master data a calculation needs.
// Getters return nil, nil when the record does not exist.
type Store interface {
	GetItem(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Item, error)
	GetFamily(ctx context.Context, db *gorm.DB, item *catalogdomain.Item) (*catalogdomain.ItemFamily, error)
	GetCustomer(ctx context.Context, db *gorm.DB, id snowflake.ID) (*customerdomain.Customer, error)
	GetAssignedPriceList(ctx context.Context, db *gorm.DB, customer *customerdomain.Customer) (*pricelistdomain.PriceList, error)
	GetDefaultPriceList(ctx context.Context, db *gorm.DB) (*pricelistdomain.PriceList, error)
	GetTiers(ctx context.Context, db *gorm.DB, priceListID, itemID snowflake.ID) ([]pricelistdomain.PriceListTier, error)
	// GetActiveDiscountRules returns active rules whose validity window contains now.
	GetActiveDiscountRules(ctx context.Context, db *gorm.DB, now time.Time) ([]discountruledomain.DiscountRule, error)
}
