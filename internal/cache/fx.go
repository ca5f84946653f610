package cache

import (
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/pricewise/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("cache",
	fx.Provide(NewPricingCache),
)

type Params struct {
	fx.In

	Pricing *config.PricingConfigHolder
	Redis   *redis.Client `optional:"true"`
	Log     *zap.Logger
}

// NewPricingCache picks Redis when a client is configured and memory otherwise.
// The TTL is read per write so pricing.yml reloads apply immediately.
func NewPricingCache(p Params) PricingCache {
	ttl := func() time.Duration { return p.Pricing.Get().CacheTTL }
	if p.Redis != nil {
		p.Log.Info("pricing cache backed by redis")
		return NewRedisPricingCache(p.Redis, ttl, p.Log)
	}
	return NewMemoryPricingCache(ttl)
}
