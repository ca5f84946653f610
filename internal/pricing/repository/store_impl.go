package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricewise/internal/cache"
	catalogdomain "github.com/smallbiznis/pricewise/internal/catalog/domain"
	customerdomain "github.com/smallbiznis/pricewise/internal/customer/domain"
	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
	"github.com/smallbiznis/pricewise/internal/observability/metrics"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
	"github.com/smallbiznis/pricewise/internal/pricing/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type StoreParams struct {
	fx.In

	Items      catalogdomain.Repository
	Customers  customerdomain.Repository
	PriceLists pricelistdomain.Repository
	Rules      discountruledomain.Repository
	Cache      cache.PricingCache
	Metrics    *metrics.Metrics `optional:"true"`
}

type store struct {
	items      catalogdomain.Repository
	customers  customerdomain.Repository
	priceLists pricelistdomain.Repository
	rules      discountruledomain.Repository
	cache      cache.PricingCache
	metrics    *metrics.Metrics
}

func NewStore(p StoreParams) domain.Store {
	c := p.Cache
	if c == nil {
		c = cache.NopPricingCache{}
	}
	return &store{
		items:      p.Items,
		customers:  p.Customers,
		priceLists: p.PriceLists,
		rules:      p.Rules,
		cache:      c,
		metrics:    p.Metrics,
	}
}

func (s *store) GetItem(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Item, error) {
	return s.items.FindItemByID(ctx, db, id)
}

func (s *store) GetFamily(ctx context.Context, db *gorm.DB, item *catalogdomain.Item) (*catalogdomain.ItemFamily, error) {
	if item == nil || item.FamilyID == nil {
		return nil, nil
	}
	return s.items.FindFamilyByID(ctx, db, *item.FamilyID)
}

func (s *store) GetCustomer(ctx context.Context, db *gorm.DB, id snowflake.ID) (*customerdomain.Customer, error) {
	return s.customers.FindByID(ctx, db, id)
}

func (s *store) GetAssignedPriceList(ctx context.Context, db *gorm.DB, customer *customerdomain.Customer) (*pricelistdomain.PriceList, error) {
	if customer == nil || customer.AssignedPriceListID == nil {
		return nil, nil
	}
	return s.priceLists.FindByID(ctx, db, *customer.AssignedPriceListID)
}

func (s *store) GetDefaultPriceList(ctx context.Context, db *gorm.DB) (*pricelistdomain.PriceList, error) {
	if list, ok := s.cache.GetDefaultPriceList(ctx); ok {
		s.metrics.RecordCacheLookup(ctx, "default_price_list", true)
		return list, nil
	}
	s.metrics.RecordCacheLookup(ctx, "default_price_list", false)

	gen := s.cache.DefaultPriceListGeneration(ctx)
	list, err := s.priceLists.FindDefault(ctx, db)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefaultPriceList(ctx, gen, list)
	return list, nil
}

func (s *store) GetTiers(ctx context.Context, db *gorm.DB, priceListID, itemID snowflake.ID) ([]pricelistdomain.PriceListTier, error) {
	return s.priceLists.ListTiers(ctx, db, priceListID, &itemID)
}

func (s *store) GetActiveDiscountRules(ctx context.Context, db *gorm.DB, now time.Time) ([]discountruledomain.DiscountRule, error) {
	rules, ok := s.cache.GetActiveRules(ctx)
	s.metrics.RecordCacheLookup(ctx, "active_rules", ok)
	if !ok {
		// The generation is read before loading so a write that commits
		// during the load keeps these rows out of the cache.
		gen := s.cache.RulesGeneration(ctx)
		loaded, err := s.rules.ListActive(ctx, db)
		if err != nil {
			return nil, err
		}
		s.cache.SetActiveRules(ctx, gen, loaded)
		rules = loaded
	}

	// Inverted windows pass through so the engine reports them as skipped.
	out := make([]discountruledomain.DiscountRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if invertedWindow(rule) || rule.InWindow(now) {
			out = append(out, rule)
		}
	}
	return out, nil
}

func invertedWindow(rule discountruledomain.DiscountRule) bool {
	return rule.ValidFrom != nil && rule.ValidUntil != nil && rule.ValidUntil.Before(*rule.ValidFrom)
}
