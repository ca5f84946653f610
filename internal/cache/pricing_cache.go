package cache

import (
	"context"
	"sync"
	"time"

	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
)

const (
	keyActiveRules      = "pricing:rules:active"
	keyDefaultPriceList = "pricing:price_list:default"
)

// PricingCache holds the request-independent parts of a pricing snapshot:
// the active discount rules and the default price list.
// Writers invalidate synchronously after their transaction commits.
//
// Every invalidation bumps a generation counter. A reader that misses reads
// the generation before loading from the database and hands it back to the
// setter; the fill is dropped when an invalidation happened in between.
type PricingCache interface {
	GetActiveRules(ctx context.Context) ([]discountruledomain.DiscountRule, bool)
	RulesGeneration(ctx context.Context) uint64
	SetActiveRules(ctx context.Context, gen uint64, rules []discountruledomain.DiscountRule)
	InvalidateRules(ctx context.Context)

	// GetDefaultPriceList may hit with a nil list, meaning no default is configured.
	GetDefaultPriceList(ctx context.Context) (*pricelistdomain.PriceList, bool)
	DefaultPriceListGeneration(ctx context.Context) uint64
	SetDefaultPriceList(ctx context.Context, gen uint64, list *pricelistdomain.PriceList)
	InvalidateDefaultPriceList(ctx context.Context)
}

type memoryPricingCache struct {
	rules Cache[string, []discountruledomain.DiscountRule]
	lists Cache[string, *pricelistdomain.PriceList]
	ttl   func() time.Duration

	// mu orders fills against invalidations.
	mu   sync.Mutex
	gens map[string]uint64
}

// NewMemoryPricingCache keeps entries in process for ttl().
func NewMemoryPricingCache(ttl func() time.Duration) PricingCache {
	return &memoryPricingCache{
		rules: NewTTLCache[string, []discountruledomain.DiscountRule](),
		lists: NewTTLCache[string, *pricelistdomain.PriceList](),
		ttl:   ttl,
		gens:  make(map[string]uint64),
	}
}

func (c *memoryPricingCache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// fill runs store only if no invalidation of key happened since gen was read.
func (c *memoryPricingCache) fill(key string, gen uint64, store func(ttl time.Duration)) {
	ttl := c.ttl()
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		return
	}
	store(ttl)
}

func (c *memoryPricingCache) invalidate(key string, drop func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	drop()
}

func (c *memoryPricingCache) GetActiveRules(_ context.Context) ([]discountruledomain.DiscountRule, bool) {
	rules, ok := c.rules.Get(keyActiveRules)
	if !ok {
		return nil, false
	}
	return cloneRules(rules), true
}

func (c *memoryPricingCache) RulesGeneration(_ context.Context) uint64 {
	return c.generation(keyActiveRules)
}

func (c *memoryPricingCache) SetActiveRules(_ context.Context, gen uint64, rules []discountruledomain.DiscountRule) {
	copied := cloneRules(rules)
	c.fill(keyActiveRules, gen, func(ttl time.Duration) {
		c.rules.Set(keyActiveRules, copied, ttl)
	})
}

func (c *memoryPricingCache) InvalidateRules(_ context.Context) {
	c.invalidate(keyActiveRules, func() { c.rules.Delete(keyActiveRules) })
}

func (c *memoryPricingCache) GetDefaultPriceList(_ context.Context) (*pricelistdomain.PriceList, bool) {
	list, ok := c.lists.Get(keyDefaultPriceList)
	if !ok || list == nil {
		return nil, ok
	}
	copied := *list
	return &copied, true
}

func (c *memoryPricingCache) DefaultPriceListGeneration(_ context.Context) uint64 {
	return c.generation(keyDefaultPriceList)
}

func (c *memoryPricingCache) SetDefaultPriceList(_ context.Context, gen uint64, list *pricelistdomain.PriceList) {
	if list != nil {
		copied := *list
		list = &copied
	}
	c.fill(keyDefaultPriceList, gen, func(ttl time.Duration) {
		c.lists.Set(keyDefaultPriceList, list, ttl)
	})
}

func (c *memoryPricingCache) InvalidateDefaultPriceList(_ context.Context) {
	c.invalidate(keyDefaultPriceList, func() { c.lists.Delete(keyDefaultPriceList) })
}

func cloneRules(rules []discountruledomain.DiscountRule) []discountruledomain.DiscountRule {
	if rules == nil {
		return []discountruledomain.DiscountRule{}
	}
	out := make([]discountruledomain.DiscountRule, len(rules))
	copy(out, rules)
	return out
}

// NopPricingCache never hits. Used when caching is disabled.
type NopPricingCache struct{}

func (NopPricingCache) GetActiveRules(context.Context) ([]discountruledomain.DiscountRule, bool) {
	return nil, false
}
func (NopPricingCache) RulesGeneration(context.Context) uint64                                    { return 0 }
func (NopPricingCache) SetActiveRules(context.Context, uint64, []discountruledomain.DiscountRule) {}
func (NopPricingCache) InvalidateRules(context.Context)                                           {}
func (NopPricingCache) GetDefaultPriceList(context.Context) (*pricelistdomain.PriceList, bool) {
	return nil, false
}
func (NopPricingCache) DefaultPriceListGeneration(context.Context) uint64                       { return 0 }
func (NopPricingCache) SetDefaultPriceList(context.Context, uint64, *pricelistdomain.PriceList) {}
func (NopPricingCache) InvalidateDefaultPriceList(context.Context)                              {}
