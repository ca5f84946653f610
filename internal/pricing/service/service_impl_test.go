package service

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
	catalogdomain "github.com/smallbiznis/pricewise/internal/catalog/domain"
	catalogrepository "github.com/smallbiznis/pricewise/internal/catalog/repository"
	"github.com/smallbiznis/pricewise/internal/clock"
	"github.com/smallbiznis/pricewise/internal/config"
	customerdomain "github.com/smallbiznis/pricewise/internal/customer/domain"
	customerrepository "github.com/smallbiznis/pricewise/internal/customer/repository"
	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
	discountrulerepository "github.com/smallbiznis/pricewise/internal/discountrule/repository"
	discountruleservice "github.com/smallbiznis/pricewise/internal/discountrule/service"
	"github.com/smallbiznis/pricewise/internal/observability/metrics"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
	pricelistrepository "github.com/smallbiznis/pricewise/internal/pricelist/repository"
	"github.com/smallbiznis/pricewise/internal/pricing/domain"
	"github.com/smallbiznis/pricewise/internal/pricing/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type pricingFixture struct {
	svc   domain.Service
	rules discountruledomain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	cfg   *config.PricingConfigHolder
}

func setupPricing(t *testing.T) pricingFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Item{},
		&catalogdomain.ItemFamily{},
		&customerdomain.Customer{},
		&customerdomain.CustomerGroup{},
		&pricelistdomain.PriceList{},
		&pricelistdomain.PriceListTier{},
		&discountruledomain.DiscountRule{},
	))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	cfg := config.NewStaticPricingConfigHolder(config.DefaultPricingConfig())
	pricingCache := cache.NewMemoryPricingCache(func() time.Duration { return time.Minute })
	log := zap.NewNop()
	ruleRepo := discountrulerepository.Provide()

	store := repository.NewStore(repository.StoreParams{
		Items:      catalogrepository.Provide(),
		Customers:  customerrepository.Provide(),
		PriceLists: pricelistrepository.Provide(),
		Rules:      ruleRepo,
		Cache:      pricingCache,
		Metrics:    metrics.NewNoop(),
	})
	svc := New(Params{
		DB:      db,
		Log:     log,
		Clock:   fake,
		Store:   store,
		Pricing: cfg,
		Metrics: metrics.NewNoop(),
	})
	rules := discountruleservice.New(discountruleservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  ruleRepo,
		Cache: pricingCache,
	})
	return pricingFixture{svc: svc, rules: rules, db: db, node: node, clock: fake, cfg: cfg}
}

func (f pricingFixture) item(t *testing.T, listPrice string, familyID *snowflake.ID) catalogdomain.Item {
	t.Helper()
	id := f.node.Generate()
	item := catalogdomain.Item{
		ID:        id,
		Code:      "item-" + id.String(),
		Name:      "Item " + id.String(),
		ListPrice: decimal.RequireFromString(listPrice),
		Cost:      decimal.RequireFromString("10"),
		FamilyID:  familyID,
		IsActive:  true,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&item).Error)
	return item
}

func (f pricingFixture) customer(t *testing.T, listID, groupID *snowflake.ID, active bool) customerdomain.Customer {
	t.Helper()
	id := f.node.Generate()
	customer := customerdomain.Customer{
		ID:                  id,
		Name:                "Customer " + id.String(),
		Email:               id.String() + "@example.com",
		AssignedPriceListID: listID,
		CustomerGroupID:     groupID,
		IsActive:            true,
		Metadata:            datatypes.JSONMap{},
		CreatedAt:           f.clock.Now(),
		UpdatedAt:           f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&customer).Error)
	if !active {
		require.NoError(t, f.db.Model(&customer).Update("is_active", false).Error)
	}
	return customer
}

func (f pricingFixture) priceList(t *testing.T, isDefault bool, tiers map[int64]string, itemID snowflake.ID) pricelistdomain.PriceList {
	t.Helper()
	id := f.node.Generate()
	list := pricelistdomain.PriceList{
		ID:        id,
		Code:      "list-" + id.String(),
		Name:      "List " + id.String(),
		IsDefault: isDefault,
		IsActive:  true,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&list).Error)
	for qty, price := range tiers {
		tier := pricelistdomain.PriceListTier{
			ID:          f.node.Generate(),
			PriceListID: list.ID,
			ItemID:      itemID,
			MinQuantity: qty,
			UnitPrice:   decimal.RequireFromString(price),
			CreatedAt:   f.clock.Now(),
			UpdatedAt:   f.clock.Now(),
		}
		require.NoError(t, f.db.Create(&tier).Error)
	}
	return list
}

func (f pricingFixture) rule(t *testing.T, req discountruledomain.CreateRuleRequest) discountruledomain.DiscountRule {
	t.Helper()
	rule, err := f.rules.Create(context.Background(), req)
	require.NoError(t, err)
	return rule
}

func TestCalculateScenarioCustomerThenGlobal(t *testing.T) {
	f := setupPricing(t)
	ctx := context.Background()
	item := f.item(t, "100.00", nil)
	customer := f.customer(t, nil, nil, true)

	f.rule(t, discountruledomain.CreateRuleRequest{
		Name: "Storewide 5 off", Scope: "global", Kind: "fixed_per_unit",
		Value: decimal.RequireFromString("5.00"), Priority: 2,
	})
	f.rule(t, discountruledomain.CreateRuleRequest{
		Name: "Loyal customer", Scope: "customer", ScopeTargetID: customer.ID.String(), Kind: "percentage",
		Value: decimal.RequireFromString("0.10"), Priority: 1,
	})

	calc, err := f.svc.Calculate(ctx, domain.CalculateRequest{
		CustomerID: customer.ID.String(),
		ItemID:     item.ID.String(),
		Quantity:   5,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriceSourceItem, calc.PriceSource)
	assert.Equal(t, "100.00", calc.BasePrice.StringFixed(2))
	assert.Equal(t, "85.00", calc.UnitPrice.StringFixed(2))
	assert.Equal(t, "425.00", calc.TotalPrice.StringFixed(2))
	assert.Equal(t, "75.00", calc.TotalDiscount.StringFixed(2))
	require.Len(t, calc.DiscountsApplied, 2)
	assert.Equal(t, "Loyal customer", calc.DiscountsApplied[0].RuleName)
	assert.Equal(t, "10.00", calc.DiscountsApplied[0].Amount.StringFixed(2))
	assert.Equal(t, "Storewide 5 off", calc.DiscountsApplied[1].RuleName)
	assert.Equal(t, "5.00", calc.DiscountsApplied[1].Amount.StringFixed(2))

	again, err := f.svc.Calculate(ctx, domain.CalculateRequest{
		CustomerID: customer.ID.String(),
		ItemID:     item.ID.String(),
		Quantity:   5,
	})
	require.NoError(t, err)
	assert.Equal(t, calc, again)
}

func TestCalculateValidationOrder(t *testing.T) {
	f := setupPricing(t)
	ctx := context.Background()
	item := f.item(t, "20", nil)
	inactive := f.customer(t, nil, nil, false)

	_, err := f.svc.Calculate(ctx, domain.CalculateRequest{ItemID: "not-an-id", CustomerID: "nope", Quantity: 0})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.Calculate(ctx, domain.CalculateRequest{ItemID: "not-an-id", CustomerID: "nope", Quantity: 1})
	require.ErrorIs(t, err, domain.ErrItemNotFound)

	_, err = f.svc.Calculate(ctx, domain.CalculateRequest{ItemID: f.node.Generate().String(), Quantity: 1})
	require.ErrorIs(t, err, domain.ErrItemNotFound)

	_, err = f.svc.Calculate(ctx, domain.CalculateRequest{ItemID: item.ID.String(), CustomerID: "nope", Quantity: 1})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)

	_, err = f.svc.Calculate(ctx, domain.CalculateRequest{ItemID: item.ID.String(), CustomerID: f.node.Generate().String(), Quantity: 1})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)

	_, err = f.svc.Calculate(ctx, domain.CalculateRequest{ItemID: item.ID.String(), CustomerID: inactive.ID.String(), Quantity: 1})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)

	calc, err := f.svc.Calculate(ctx, domain.CalculateRequest{ItemID: item.ID.String(), CustomerID: "  ", Quantity: 1})
	require.NoError(t, err)
	assert.Nil(t, calc.CustomerID)
}

func TestCalculateUsesTiersFromAssignedAndDefaultLists(t *testing.T) {
	f := setupPricing(t)
	ctx := context.Background()
	item := f.item(t, "50", nil)
	assigned := f.priceList(t, false, map[int64]string{1: "45", 10: "40", 50: "35"}, item.ID)
	def := f.priceList(t, true, map[int64]string{5: "48"}, item.ID)
	withList := f.customer(t, &assigned.ID, nil, true)

	calc, err := f.svc.Calculate(ctx, domain.CalculateRequest{CustomerID: withList.ID.String(), ItemID: item.ID.String(), Quantity: 25})
	require.NoError(t, err)
	assert.Equal(t, domain.PriceSourcePriceList, calc.PriceSource)
	assert.Equal(t, "40.00", calc.BasePrice.StringFixed(2))
	require.NotNil(t, calc.PriceListID)
	assert.Equal(t, assigned.ID, *calc.PriceListID)

	calc, err = f.svc.Calculate(ctx, domain.CalculateRequest{ItemID: item.ID.String(), Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, "48.00", calc.BasePrice.StringFixed(2))
	assert.Equal(t, def.ID, *calc.PriceListID)

	calc, err = f.svc.Calculate(ctx, domain.CalculateRequest{ItemID: item.ID.String(), Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, domain.PriceSourceItem, calc.PriceSource)
	assert.Equal(t, "50.00", calc.BasePrice.StringFixed(2))
}

func TestCalculateMatchesGroupAndFamilyRules(t *testing.T) {
	f := setupPricing(t)
	ctx := context.Background()
	familyID := f.node.Generate()
	groupID := f.node.Generate()
	item := f.item(t, "200", &familyID)
	customer := f.customer(t, nil, &groupID, true)

	f.rule(t, discountruledomain.CreateRuleRequest{
		Name: "Family", Scope: "item_family", ScopeTargetID: familyID.String(), Kind: "percentage",
		Value: decimal.RequireFromString("0.05"), Priority: 1,
	})
	f.rule(t, discountruledomain.CreateRuleRequest{
		Name: "Group", Scope: "customer_group", ScopeTargetID: groupID.String(), Kind: "fixed_per_unit",
		Value: decimal.RequireFromString("10"), Priority: 1,
	})

	calc, err := f.svc.Calculate(ctx, domain.CalculateRequest{CustomerID: customer.ID.String(), ItemID: item.ID.String(), Quantity: 1})
	require.NoError(t, err)
	require.Len(t, calc.DiscountsApplied, 2)
	assert.Equal(t, "Group", calc.DiscountsApplied[0].RuleName)
	assert.Equal(t, "Family", calc.DiscountsApplied[1].RuleName)
	assert.Equal(t, "9.50", calc.DiscountsApplied[1].Amount.StringFixed(2))
	assert.Equal(t, "180.50", calc.UnitPrice.StringFixed(2))

	calc, err = f.svc.Calculate(ctx, domain.CalculateRequest{ItemID: item.ID.String(), Quantity: 1})
	require.NoError(t, err)
	require.Len(t, calc.DiscountsApplied, 1)
	assert.Equal(t, "Family", calc.DiscountsApplied[0].RuleName)
}

func TestCalculateSeesRuleWritesThroughCache(t *testing.T) {
	f := setupPricing(t)
	ctx := context.Background()
	item := f.item(t, "10", nil)
	req := domain.CalculateRequest{ItemID: item.ID.String(), Quantity: 1}

	calc, err := f.svc.Calculate(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, calc.DiscountsApplied)

	rule := f.rule(t, discountruledomain.CreateRuleRequest{
		Name: "Flash", Scope: "global", Kind: "percentage",
		Value: decimal.RequireFromString("0.5"), Priority: 1,
	})
	calc, err = f.svc.Calculate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "5.00", calc.UnitPrice.StringFixed(2))

	_, err = f.rules.Deactivate(ctx, rule.ID.String())
	require.NoError(t, err)
	calc, err = f.svc.Calculate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "10.00", calc.UnitPrice.StringFixed(2))
}

func TestCalculateHonorsValidityWindow(t *testing.T) {
	f := setupPricing(t)
	ctx := context.Background()
	item := f.item(t, "10", nil)
	from := f.clock.Now().Add(time.Hour)
	until := from.Add(time.Hour)

	f.rule(t, discountruledomain.CreateRuleRequest{
		Name: "Later", Scope: "item", ScopeTargetID: item.ID.String(), Kind: "fixed_per_unit",
		Value: decimal.RequireFromString("1"), ValidFrom: &from, ValidUntil: &until,
	})
	req := domain.CalculateRequest{ItemID: item.ID.String(), Quantity: 1}

	calc, err := f.svc.Calculate(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, calc.DiscountsApplied)

	f.clock.Set(from)
	calc, err = f.svc.Calculate(ctx, req)
	require.NoError(t, err)
	assert.Len(t, calc.DiscountsApplied, 1)

	f.clock.Set(until.Add(time.Second))
	calc, err = f.svc.Calculate(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, calc.DiscountsApplied)
}

func TestCalculateBatchKeepsOrder(t *testing.T) {
	f := setupPricing(t)
	ctx := context.Background()
	cheap := f.item(t, "1", nil)
	pricey := f.item(t, "1000", nil)

	reqs := []domain.CalculateRequest{
		{ItemID: pricey.ID.String(), Quantity: 2},
		{ItemID: cheap.ID.String(), Quantity: 0},
		{ItemID: cheap.ID.String(), Quantity: 3},
		{ItemID: "missing", Quantity: 1},
	}
	results, err := f.svc.CalculateBatch(ctx, reqs)
	require.NoError(t, err)
	require.Len(t, results, 4)

	require.NotNil(t, results[0].Calculation)
	assert.Equal(t, "2000.00", results[0].Calculation.TotalPrice.StringFixed(2))
	assert.ErrorIs(t, results[1].Err, domain.ErrInvalidQuantity)
	assert.Nil(t, results[1].Calculation)
	require.NotNil(t, results[2].Calculation)
	assert.Equal(t, "3.00", results[2].Calculation.TotalPrice.StringFixed(2))
	assert.ErrorIs(t, results[3].Err, domain.ErrItemNotFound)
}

func TestCalculateBatchLimits(t *testing.T) {
	f := setupPricing(t)
	ctx := context.Background()

	_, err := f.svc.CalculateBatch(ctx, nil)
	require.ErrorIs(t, err, domain.ErrEmptyBatch)

	cfg := config.DefaultPricingConfig()
	cfg.MaxBatchSize = 2
	f.cfg.Set(cfg)
	_, err = f.svc.CalculateBatch(ctx, make([]domain.CalculateRequest, 3))
	require.ErrorIs(t, err, domain.ErrBatchTooLarge)
}
