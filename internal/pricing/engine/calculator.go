package engine

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pricewise/internal/pricing/domain"
)

type Options struct {
	// Scale is the number of fractional currency digits kept in every amount.
	Scale            int32
	CostFloorEnabled bool
}

// Calculate prices quantity units of the snapshot's item. It reads nothing
// outside the snapshot, so equal snapshots always give equal results.
func Calculate(s domain.Snapshot, quantity int64, opts Options) (domain.PriceCalculation, []domain.SkippedRule, error) {
	if quantity < 1 {
		return domain.PriceCalculation{}, nil, domain.ErrInvalidQuantity
	}

	base, err := Resolve(s, quantity)
	if err != nil {
		return domain.PriceCalculation{}, nil, err
	}
	basePrice := roundMoney(base.Price, opts.Scale)

	rules, skipped := GatherRules(s.Rules, s.Item, s.Customer, s.Now)
	OrderRules(rules)
	unitPrice, applied := ApplyRules(basePrice, rules, opts.Scale)

	floorApplied := false
	if opts.CostFloorEnabled {
		floor := decimal.Min(roundMoney(s.Item.Cost, opts.Scale), basePrice)
		if unitPrice.LessThan(floor) {
			unitPrice = floor
			floorApplied = true
		}
	}

	qty := decimal.NewFromInt(quantity)
	totalPrice := unitPrice.Mul(qty)
	calc := domain.PriceCalculation{
		ItemID:           s.Item.ID,
		BasePrice:        basePrice,
		PriceSource:      base.Source,
		PriceListID:      base.PriceListID,
		Quantity:         quantity,
		UnitPrice:        unitPrice,
		TotalPrice:       totalPrice,
		TotalDiscount:    basePrice.Mul(qty).Sub(totalPrice),
		DiscountsApplied: applied,
		CostFloorApplied: floorApplied,
	}
	if s.Customer != nil {
		customerID := s.Customer.ID
		calc.CustomerID = &customerID
	}
	return calc, skipped, nil
}
