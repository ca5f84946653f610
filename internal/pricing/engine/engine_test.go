package engine

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/pricewise/internal/catalog/domain"
	customerdomain "github.com/smallbiznis/pricewise/internal/customer/domain"
	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
	"github.com/smallbiznis/pricewise/internal/pricing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func idPtr(id snowflake.ID) *snowflake.ID {
	return &id
}

func testItem() *catalogdomain.Item {
	return &catalogdomain.Item{
		ID:        100,
		Code:      "widget",
		Name:      "Widget",
		ListPrice: dec("100.00"),
		Cost:      dec("40.00"),
		IsActive:  true,
	}
}

func testCustomer() *customerdomain.Customer {
	return &customerdomain.Customer{ID: 200, Name: "Acme", IsActive: true}
}

func rule(id snowflake.ID, scope discountruledomain.Scope, target *snowflake.ID, kind discountruledomain.Kind, value string, priority int) discountruledomain.DiscountRule {
	return discountruledomain.DiscountRule{
		ID:            id,
		Name:          "rule-" + id.String(),
		Scope:         scope,
		ScopeTargetID: target,
		Kind:          kind,
		Value:         dec(value),
		Priority:      priority,
		IsActive:      true,
	}
}

func tiers(listID, itemID snowflake.ID, prices map[int64]string) []pricelistdomain.PriceListTier {
	out := make([]pricelistdomain.PriceListTier, 0, len(prices))
	for qty, price := range prices {
		out = append(out, pricelistdomain.PriceListTier{
			ID:          snowflake.ID(qty),
			PriceListID: listID,
			ItemID:      itemID,
			MinQuantity: qty,
			UnitPrice:   dec(price),
		})
	}
	return out
}

func TestResolveFallsBackToItemListPrice(t *testing.T) {
	base, err := Resolve(domain.Snapshot{Item: testItem()}, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.PriceSourceItem, base.Source)
	assert.True(t, base.Price.Equal(dec("100")))
	assert.Nil(t, base.PriceListID)
}

func TestResolveItemNotFound(t *testing.T) {
	_, err := Resolve(domain.Snapshot{}, 1)
	require.ErrorIs(t, err, domain.ErrItemNotFound)

	item := testItem()
	item.IsActive = false
	_, err = Resolve(domain.Snapshot{Item: item}, 1)
	require.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestSelectTierGreatestLowerBound(t *testing.T) {
	ts := tiers(7, 100, map[int64]string{1: "10", 10: "9", 50: "8"})

	tier, ok := SelectTier(ts, 100, 25)
	require.True(t, ok)
	assert.Equal(t, int64(10), tier.MinQuantity)

	tier, ok = SelectTier(ts, 100, 50)
	require.True(t, ok)
	assert.Equal(t, int64(50), tier.MinQuantity)

	_, ok = SelectTier(tiers(7, 100, map[int64]string{5: "9"}), 100, 4)
	assert.False(t, ok)

	_, ok = SelectTier(ts, 999, 25)
	assert.False(t, ok)
}

func TestResolvePrefersAssignedListOverDefault(t *testing.T) {
	customer := testCustomer()
	assigned := &pricelistdomain.PriceList{ID: 1, IsActive: true}
	def := &pricelistdomain.PriceList{ID: 2, IsActive: true, IsDefault: true}
	snap := domain.Snapshot{
		Item:              testItem(),
		Customer:          customer,
		AssignedPriceList: assigned,
		AssignedTiers:     tiers(1, 100, map[int64]string{1: "80"}),
		DefaultPriceList:  def,
		DefaultTiers:      tiers(2, 100, map[int64]string{1: "90"}),
	}

	base, err := Resolve(snap, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.PriceSourcePriceList, base.Source)
	assert.True(t, base.Price.Equal(dec("80")))
	require.NotNil(t, base.PriceListID)
	assert.Equal(t, snowflake.ID(1), *base.PriceListID)

	assigned.IsActive = false
	base, err = Resolve(snap, 1)
	require.NoError(t, err)
	assert.True(t, base.Price.Equal(dec("90")))

	def.IsActive = false
	base, err = Resolve(snap, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.PriceSourceItem, base.Source)
}

func TestResolveDefaultListWithoutCoveringTierFallsBack(t *testing.T) {
	snap := domain.Snapshot{
		Item:             testItem(),
		DefaultPriceList: &pricelistdomain.PriceList{ID: 2, IsActive: true, IsDefault: true},
		DefaultTiers:     tiers(2, 100, map[int64]string{10: "90"}),
	}
	base, err := Resolve(snap, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.PriceSourceItem, base.Source)
	assert.True(t, base.Price.Equal(dec("100")))
}

func TestCalculateStacksOnRunningPrice(t *testing.T) {
	customer := testCustomer()
	snap := domain.Snapshot{
		Item:     testItem(),
		Customer: customer,
		Now:      now,
		Rules: []discountruledomain.DiscountRule{
			rule(2, discountruledomain.ScopeGlobal, nil, discountruledomain.KindFixedPerUnit, "5.00", 2),
			rule(1, discountruledomain.ScopeCustomer, idPtr(customer.ID), discountruledomain.KindPercentage, "0.10", 1),
		},
	}

	calc, skipped, err := Calculate(snap, 5, Options{Scale: 2})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, "100.00", calc.BasePrice.StringFixed(2))
	assert.Equal(t, domain.PriceSourceItem, calc.PriceSource)
	assert.Equal(t, "85.00", calc.UnitPrice.StringFixed(2))
	assert.Equal(t, "425.00", calc.TotalPrice.StringFixed(2))
	assert.Equal(t, "75.00", calc.TotalDiscount.StringFixed(2))
	require.Len(t, calc.DiscountsApplied, 2)
	assert.Equal(t, discountruledomain.ScopeCustomer, calc.DiscountsApplied[0].Scope)
	assert.Equal(t, "10.00", calc.DiscountsApplied[0].Amount.StringFixed(2))
	assert.Equal(t, discountruledomain.ScopeGlobal, calc.DiscountsApplied[1].Scope)
	assert.Equal(t, "5.00", calc.DiscountsApplied[1].Amount.StringFixed(2))
	require.NotNil(t, calc.CustomerID)
	assert.Equal(t, customer.ID, *calc.CustomerID)
}

func TestCalculateInvalidQuantity(t *testing.T) {
	calc, _, err := Calculate(domain.Snapshot{Item: testItem()}, 0, Options{Scale: 2})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, domain.PriceCalculation{}, calc)
}

func TestCalculateIsDeterministic(t *testing.T) {
	customer := testCustomer()
	snap := domain.Snapshot{
		Item:     testItem(),
		Customer: customer,
		Now:      now,
		Rules: []discountruledomain.DiscountRule{
			rule(3, discountruledomain.ScopeItem, idPtr(100), discountruledomain.KindPercentage, "0.15", 1),
			rule(1, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "0.05", 1),
			rule(2, discountruledomain.ScopeCustomer, idPtr(customer.ID), discountruledomain.KindFixedPerUnit, "3", 1),
		},
	}

	first, _, err := Calculate(snap, 7, Options{Scale: 2})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, _, err := Calculate(snap, 7, Options{Scale: 2})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	// input order must not leak into the result
	assert.Equal(t, snowflake.ID(1), snap.Rules[1].ID)
}

func TestOrderRulesTieBreaks(t *testing.T) {
	target := idPtr(9)
	rules := []discountruledomain.DiscountRule{
		rule(6, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "0.1", 1),
		rule(5, discountruledomain.ScopeItemFamily, target, discountruledomain.KindPercentage, "0.1", 1),
		rule(4, discountruledomain.ScopeItem, target, discountruledomain.KindPercentage, "0.1", 1),
		rule(3, discountruledomain.ScopeCustomerGroup, target, discountruledomain.KindPercentage, "0.1", 1),
		rule(8, discountruledomain.ScopeCustomer, target, discountruledomain.KindPercentage, "0.1", 1),
		rule(2, discountruledomain.ScopeCustomer, target, discountruledomain.KindPercentage, "0.1", 1),
		rule(1, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "0.1", 0),
	}
	OrderRules(rules)

	ids := make([]snowflake.ID, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []snowflake.ID{1, 2, 8, 3, 4, 5, 6}, ids)
}

func TestGatherRulesMatchesScopes(t *testing.T) {
	item := testItem()
	item.FamilyID = idPtr(300)
	customer := testCustomer()
	customer.CustomerGroupID = idPtr(400)

	rules := []discountruledomain.DiscountRule{
		rule(1, discountruledomain.ScopeCustomer, idPtr(customer.ID), discountruledomain.KindPercentage, "0.1", 1),
		rule(2, discountruledomain.ScopeCustomer, idPtr(999), discountruledomain.KindPercentage, "0.1", 1),
		rule(3, discountruledomain.ScopeCustomerGroup, idPtr(400), discountruledomain.KindPercentage, "0.1", 1),
		rule(4, discountruledomain.ScopeItem, idPtr(item.ID), discountruledomain.KindPercentage, "0.1", 1),
		rule(5, discountruledomain.ScopeItemFamily, idPtr(300), discountruledomain.KindPercentage, "0.1", 1),
		rule(6, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "0.1", 1),
	}
	inactive := rule(7, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "0.1", 1)
	inactive.IsActive = false
	expired := rule(8, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "0.1", 1)
	until := now.Add(-time.Second)
	expired.ValidUntil = &until
	edge := rule(9, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "0.1", 1)
	edge.ValidFrom = &now
	edge.ValidUntil = &now
	rules = append(rules, inactive, expired, edge)

	matched, skipped := GatherRules(rules, item, customer, now)
	assert.Empty(t, skipped)
	ids := make([]snowflake.ID, 0, len(matched))
	for _, r := range matched {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []snowflake.ID{1, 3, 4, 5, 6, 9}, ids)

	matched, _ = GatherRules(rules, item, nil, now)
	ids = ids[:0]
	for _, r := range matched {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []snowflake.ID{4, 5, 6, 9}, ids)
}

func TestGatherRulesSkipsMalformed(t *testing.T) {
	from := now
	until := now.Add(-time.Hour)
	inverted := rule(6, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "0.1", 1)
	inverted.ValidFrom = &from
	inverted.ValidUntil = &until

	rules := []discountruledomain.DiscountRule{
		rule(1, discountruledomain.ScopeItem, nil, discountruledomain.KindPercentage, "0.1", 1),
		rule(2, "region", idPtr(5), discountruledomain.KindPercentage, "0.1", 1),
		rule(3, discountruledomain.ScopeGlobal, nil, "bogo", "0.1", 1),
		rule(4, discountruledomain.ScopeGlobal, nil, discountruledomain.KindFixedPerUnit, "-1", 1),
		rule(5, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "1.2", 1),
		inverted,
		rule(7, discountruledomain.ScopeGlobal, idPtr(5), discountruledomain.KindPercentage, "0.1", 1),
		rule(8, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "0.1", 1),
	}

	matched, skipped := GatherRules(rules, testItem(), nil, now)
	require.Len(t, matched, 1)
	assert.Equal(t, snowflake.ID(8), matched[0].ID)

	reasons := make([]string, 0, len(skipped))
	for _, s := range skipped {
		reasons = append(reasons, s.Reason)
		require.ErrorIs(t, s.Err(), domain.ErrRuleEvaluationSkipped)
	}
	assert.Equal(t, []string{
		domain.SkipReasonMissingTarget,
		domain.SkipReasonUnknownScope,
		domain.SkipReasonUnknownKind,
		domain.SkipReasonNonPositiveValue,
		domain.SkipReasonPercentageAboveOne,
		domain.SkipReasonInvertedWindow,
		domain.SkipReasonUnexpectedTarget,
	}, reasons)
}

func TestApplyRulesNeverNegative(t *testing.T) {
	rules := []discountruledomain.DiscountRule{
		rule(1, discountruledomain.ScopeGlobal, nil, discountruledomain.KindFixedPerUnit, "30", 1),
		rule(2, discountruledomain.ScopeGlobal, nil, discountruledomain.KindFixedPerUnit, "30", 2),
		rule(3, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "0.5", 3),
	}
	unit, applied := ApplyRules(dec("50"), rules, 2)
	assert.True(t, unit.IsZero())
	require.Len(t, applied, 2)
	assert.Equal(t, "30.00", applied[0].Amount.StringFixed(2))
	assert.Equal(t, "20.00", applied[1].Amount.StringFixed(2))
	for _, a := range applied {
		assert.True(t, a.Amount.IsPositive())
	}
}

func TestApplyRulesRoundsHalfAwayFromZero(t *testing.T) {
	rules := []discountruledomain.DiscountRule{
		rule(1, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "0.0125", 1),
	}
	unit, applied := ApplyRules(dec("10.00"), rules, 2)
	require.Len(t, applied, 1)
	assert.Equal(t, "0.13", applied[0].Amount.StringFixed(2))
	assert.Equal(t, "9.87", unit.StringFixed(2))

	rules[0].Value = dec("0.0001")
	_, applied = ApplyRules(dec("10.00"), rules, 2)
	assert.Empty(t, applied)
}

func TestCalculateCostFloor(t *testing.T) {
	snap := domain.Snapshot{
		Item: testItem(),
		Now:  now,
		Rules: []discountruledomain.DiscountRule{
			rule(1, discountruledomain.ScopeGlobal, nil, discountruledomain.KindPercentage, "0.75", 1),
		},
	}

	calc, _, err := Calculate(snap, 2, Options{Scale: 2})
	require.NoError(t, err)
	assert.Equal(t, "25.00", calc.UnitPrice.StringFixed(2))
	assert.False(t, calc.CostFloorApplied)

	calc, _, err = Calculate(snap, 2, Options{Scale: 2, CostFloorEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, "40.00", calc.UnitPrice.StringFixed(2))
	assert.Equal(t, "80.00", calc.TotalPrice.StringFixed(2))
	assert.Equal(t, "120.00", calc.TotalDiscount.StringFixed(2))
	assert.True(t, calc.CostFloorApplied)
}

func TestCalculateTotalsConsistent(t *testing.T) {
	snap := domain.Snapshot{
		Item:             testItem(),
		Now:              now,
		DefaultPriceList: &pricelistdomain.PriceList{ID: 2, IsActive: true, IsDefault: true},
		DefaultTiers:     tiers(2, 100, map[int64]string{1: "19.99", 10: "17.4950"}),
		Rules: []discountruledomain.DiscountRule{
			rule(1, discountruledomain.ScopeItem, idPtr(100), discountruledomain.KindPercentage, "0.07", 1),
			rule(2, discountruledomain.ScopeGlobal, nil, discountruledomain.KindFixedPerUnit, "0.333", 2),
		},
	}
	for _, qty := range []int64{1, 3, 10, 37} {
		calc, _, err := Calculate(snap, qty, Options{Scale: 2})
		require.NoError(t, err)
		q := decimal.NewFromInt(qty)
		assert.True(t, calc.TotalPrice.Equal(calc.UnitPrice.Mul(q)))
		assert.True(t, calc.TotalDiscount.Equal(calc.BasePrice.Mul(q).Sub(calc.TotalPrice)))
		assert.False(t, calc.UnitPrice.IsNegative())
		assert.Equal(t, domain.PriceSourcePriceList, calc.PriceSource)
	}
}
