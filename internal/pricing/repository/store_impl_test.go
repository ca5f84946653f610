package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pricewise/internal/cache"
	catalogrepository "github.com/smallbiznis/pricewise/internal/catalog/repository"
	customerrepository "github.com/smallbiznis/pricewise/internal/customer/repository"
	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
	discountrulerepository "github.com/smallbiznis/pricewise/internal/discountrule/repository"
	"github.com/smallbiznis/pricewise/internal/observability/metrics"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
	pricelistrepository "github.com/smallbiznis/pricewise/internal/pricelist/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var storeNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func setupStoreDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&pricelistdomain.PriceList{}, &discountruledomain.DiscountRule{}))
	return db
}

// writerDuringRuleLoad runs a concurrent writer after the rows were read
// but before the store fills the cache with them.
type writerDuringRuleLoad struct {
	discountruledomain.Repository
	write func()
}

func (r *writerDuringRuleLoad) ListActive(ctx context.Context, db *gorm.DB) ([]discountruledomain.DiscountRule, error) {
	rules, err := r.Repository.ListActive(ctx, db)
	if r.write != nil {
		write := r.write
		r.write = nil
		write()
	}
	return rules, err
}

type writerDuringDefaultLoad struct {
	pricelistdomain.Repository
	write func()
}

func (r *writerDuringDefaultLoad) FindDefault(ctx context.Context, db *gorm.DB) (*pricelistdomain.PriceList, error) {
	list, err := r.Repository.FindDefault(ctx, db)
	if r.write != nil {
		write := r.write
		r.write = nil
		write()
	}
	return list, err
}

func newTestStore(rules discountruledomain.Repository, lists pricelistdomain.Repository, c cache.PricingCache) *store {
	return NewStore(StoreParams{
		Items:      catalogrepository.Provide(),
		Customers:  customerrepository.Provide(),
		PriceLists: lists,
		Rules:      rules,
		Cache:      c,
		Metrics:    metrics.NewNoop(),
	}).(*store)
}

func TestActiveRulesDeactivatedDuringLoadAreNotCached(t *testing.T) {
	db := setupStoreDB(t)
	ctx := context.Background()
	pricingCache := cache.NewMemoryPricingCache(func() time.Duration { return time.Minute })

	rule := discountruledomain.DiscountRule{
		ID: snowflake.ID(11), Name: "Summer 10%", Scope: discountruledomain.ScopeGlobal,
		Kind: discountruledomain.KindPercentage, Value: decimal.RequireFromString("0.10"),
		Priority: 1, IsActive: true, CreatedAt: storeNow, UpdatedAt: storeNow,
	}
	require.NoError(t, db.Create(&rule).Error)

	rules := &writerDuringRuleLoad{Repository: discountrulerepository.Provide()}
	rules.write = func() {
		require.NoError(t, db.Model(&discountruledomain.DiscountRule{}).Where("id = ?", rule.ID).Update("is_active", false).Error)
		pricingCache.InvalidateRules(ctx)
	}
	s := newTestStore(rules, pricelistrepository.Provide(), pricingCache)

	// The request that overlapped the write may still see the old rule.
	first, err := s.GetActiveDiscountRules(ctx, db, storeNow)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := s.GetActiveDiscountRules(ctx, db, storeNow)
	require.NoError(t, err)
	assert.Empty(t, second, "deactivated rule served from cache")

	cached, ok := pricingCache.GetActiveRules(ctx)
	require.True(t, ok)
	assert.Empty(t, cached)
}

func TestDefaultPriceListClearedDuringLoadIsNotCached(t *testing.T) {
	db := setupStoreDB(t)
	ctx := context.Background()
	pricingCache := cache.NewMemoryPricingCache(func() time.Duration { return time.Minute })

	list := pricelistdomain.PriceList{
		ID: snowflake.ID(21), Code: "retail", Name: "Retail",
		IsDefault: true, IsActive: true, CreatedAt: storeNow, UpdatedAt: storeNow,
	}
	require.NoError(t, db.Create(&list).Error)

	lists := &writerDuringDefaultLoad{Repository: pricelistrepository.Provide()}
	lists.write = func() {
		require.NoError(t, db.Model(&pricelistdomain.PriceList{}).Where("id = ?", list.ID).Update("is_default", false).Error)
		pricingCache.InvalidateDefaultPriceList(ctx)
	}
	s := newTestStore(discountrulerepository.Provide(), lists, pricingCache)

	first, err := s.GetDefaultPriceList(ctx, db)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "retail", first.Code)

	second, err := s.GetDefaultPriceList(ctx, db)
	require.NoError(t, err)
	assert.Nil(t, second, "cleared default served from cache")
}

func TestActiveRulesServedFromCacheUntilInvalidated(t *testing.T) {
	db := setupStoreDB(t)
	ctx := context.Background()
	pricingCache := cache.NewMemoryPricingCache(func() time.Duration { return time.Minute })
	s := newTestStore(discountrulerepository.Provide(), pricelistrepository.Provide(), pricingCache)

	rule := discountruledomain.DiscountRule{
		ID: snowflake.ID(31), Name: "Item 5 off", Scope: discountruledomain.ScopeGlobal,
		Kind: discountruledomain.KindFixedPerUnit, Value: decimal.RequireFromString("5"),
		Priority: 2, IsActive: true, CreatedAt: storeNow, UpdatedAt: storeNow,
	}
	require.NoError(t, db.Create(&rule).Error)

	got, err := s.GetActiveDiscountRules(ctx, db, storeNow)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// A write that skips invalidation stays hidden behind the cached snapshot.
	require.NoError(t, db.Model(&discountruledomain.DiscountRule{}).Where("id = ?", rule.ID).Update("is_active", false).Error)
	got, err = s.GetActiveDiscountRules(ctx, db, storeNow)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	pricingCache.InvalidateRules(ctx)
	got, err = s.GetActiveDiscountRules(ctx, db, storeNow)
	require.NoError(t, err)
	assert.Empty(t, got)
}
