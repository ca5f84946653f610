package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
	"go.uber.org/zap"
)

// fillScript writes KEYS[1] only while the generation in KEYS[2] still
// matches the one the reader saw before loading.
const fillScript = `
local current = redis.call("GET", KEYS[2]) or "0"
if current ~= ARGV[2] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`

// redisPricingCache shares snapshot entries across replicas so that an
// invalidation on one instance is seen by all of them.
type redisPricingCache struct {
	client redis.Cmdable
	fill   *redis.Script
	ttl    func() time.Duration
	log    *zap.Logger
}

func NewRedisPricingCache(client redis.Cmdable, ttl func() time.Duration, log *zap.Logger) PricingCache {
	return &redisPricingCache{
		client: client,
		fill:   redis.NewScript(fillScript),
		ttl:    ttl,
		log:    log.Named("pricing.cache"),
	}
}

func generationKey(key string) string {
	return key + ":gen"
}

func (c *redisPricingCache) GetActiveRules(ctx context.Context) ([]discountruledomain.DiscountRule, bool) {
	var rules []discountruledomain.DiscountRule
	if !c.get(ctx, keyActiveRules, &rules) {
		return nil, false
	}
	if rules == nil {
		rules = []discountruledomain.DiscountRule{}
	}
	return rules, true
}

func (c *redisPricingCache) RulesGeneration(ctx context.Context) uint64 {
	return c.generation(ctx, keyActiveRules)
}

func (c *redisPricingCache) SetActiveRules(ctx context.Context, gen uint64, rules []discountruledomain.DiscountRule) {
	if rules == nil {
		rules = []discountruledomain.DiscountRule{}
	}
	c.set(ctx, keyActiveRules, gen, rules)
}

func (c *redisPricingCache) InvalidateRules(ctx context.Context) {
	c.invalidate(ctx, keyActiveRules)
}

func (c *redisPricingCache) GetDefaultPriceList(ctx context.Context) (*pricelistdomain.PriceList, bool) {
	var list *pricelistdomain.PriceList
	if !c.get(ctx, keyDefaultPriceList, &list) {
		return nil, false
	}
	return list, true
}

func (c *redisPricingCache) DefaultPriceListGeneration(ctx context.Context) uint64 {
	return c.generation(ctx, keyDefaultPriceList)
}

func (c *redisPricingCache) SetDefaultPriceList(ctx context.Context, gen uint64, list *pricelistdomain.PriceList) {
	c.set(ctx, keyDefaultPriceList, gen, list)
}

func (c *redisPricingCache) InvalidateDefaultPriceList(ctx context.Context) {
	c.invalidate(ctx, keyDefaultPriceList)
}

func (c *redisPricingCache) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("pricing cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("pricing cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// generation reports 0 when the counter has never been bumped. A read error
// also reports 0, which makes a later fill a no-op once any invalidation ran.
func (c *redisPricingCache) generation(ctx context.Context, key string) uint64 {
	gen, err := c.client.Get(ctx, generationKey(key)).Uint64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("pricing cache generation read failed", zap.String("key", key), zap.Error(err))
		}
		return 0
	}
	return gen
}

func (c *redisPricingCache) set(ctx context.Context, key string, gen uint64, value any) {
	ttl := c.ttl()
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("pricing cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	stored, err := c.fill.Run(ctx, c.client,
		[]string{key, generationKey(key)},
		string(raw), strconv.FormatUint(gen, 10), ttl.Milliseconds(),
	).Int64()
	if err != nil {
		c.log.Warn("pricing cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if stored == 0 {
		c.log.Debug("pricing cache fill dropped after invalidation", zap.String("key", key), zap.Uint64("generation", gen))
	}
}

// The generation is bumped before the entry is deleted so that a fill
// racing the delete is rejected. A failed delete leaves a stale entry that
// expires after one TTL.
func (c *redisPricingCache) invalidate(ctx context.Context, key string) {
	if err := c.client.Incr(ctx, generationKey(key)).Err(); err != nil {
		c.log.Error("pricing cache generation bump failed", zap.String("key", key), zap.Error(err))
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Error("pricing cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
