package engine

import (
	"sort"

	"github.com/bwmarrin/snowflake"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
	"github.com/smallbiznis/pricewise/internal/pricing/domain"
)

// Resolve picks the base unit price for the snapshot's item at quantity.
// The customer's active assigned list wins over the active default list,
// and the item's list price is the fallback.
func Resolve(s domain.Snapshot, quantity int64) (domain.PriceBase, error) {
	item := s.Item
	if item == nil || !item.IsActive {
		return domain.PriceBase{}, domain.ErrItemNotFound
	}

	if s.Customer != nil && usable(s.AssignedPriceList) {
		if tier, ok := SelectTier(s.AssignedTiers, item.ID, quantity); ok {
			return fromTier(tier), nil
		}
	}
	if usable(s.DefaultPriceList) && s.DefaultPriceList.IsDefault {
		if tier, ok := SelectTier(s.DefaultTiers, item.ID, quantity); ok {
			return fromTier(tier), nil
		}
	}

	return domain.PriceBase{
		Price:  item.ListPrice,
		Source: domain.PriceSourceItem,
	}, nil
}

// SelectTier returns the tier with the greatest MinQuantity not above quantity.
func SelectTier(tiers []pricelistdomain.PriceListTier, itemID snowflake.ID, quantity int64) (pricelistdomain.PriceListTier, bool) {
	candidates := make([]pricelistdomain.PriceListTier, 0, len(tiers))
	for _, tier := range tiers {
		if tier.ItemID == itemID {
			candidates = append(candidates, tier)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MinQuantity < candidates[j].MinQuantity
	})

	var (
		selected pricelistdomain.PriceListTier
		found    bool
	)
	for _, tier := range candidates {
		if tier.MinQuantity > quantity {
			break
		}
		selected = tier
		found = true
	}
	return selected, found
}

func usable(list *pricelistdomain.PriceList) bool {
	return list != nil && list.IsActive
}

func fromTier(tier pricelistdomain.PriceListTier) domain.PriceBase {
	listID := tier.PriceListID
	return domain.PriceBase{
		Price:       tier.UnitPrice,
		Source:      domain.PriceSourcePriceList,
		PriceListID: &listID,
	}
}
