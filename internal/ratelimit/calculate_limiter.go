package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/pricewise/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyCalculateClient = "pricing:calculate:client:%s"

// CalculateLimiter throttles /api/pricing calls per client and allows one
// batch in flight per client.
type CalculateLimiter struct {
	enabled bool

	bucket  *TokenBucket
	batches *BatchGate

	rate  float64
	burst int
}

type Params struct {
	fx.In

	Cfg   config.Config
	Redis *redis.Client `optional:"true"`
	Log   *zap.Logger
}

// NewCalculateLimiter returns nil when rate limiting is off or Redis is not configured.
func NewCalculateLimiter(p Params) (*CalculateLimiter, error) {
	limitCfg := p.Cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if p.Redis == nil {
		p.Log.Warn("rate limiting enabled without redis, requests will not be limited")
		return nil, nil
	}
	return newCalculateLimiter(p.Redis, limitCfg)
}

func newCalculateLimiter(client redis.Cmdable, limitCfg config.RateLimitConfig) (*CalculateLimiter, error) {
	if limitCfg.CalculateRate <= 0 || limitCfg.CalculateBurst <= 0 {
		return nil, errors.New("pricing calculate rate limit must be positive")
	}
	if limitCfg.BatchLockTTLSeconds <= 0 {
		return nil, errors.New("pricing batch lock ttl must be positive")
	}

	return &CalculateLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		batches: NewBatchGate(client, time.Duration(limitCfg.BatchLockTTLSeconds)*time.Second),
		rate:    limitCfg.CalculateRate,
		burst:   limitCfg.CalculateBurst,
	}, nil
}

func (l *CalculateLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *CalculateLimiter) Allow(ctx context.Context, clientID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyCalculateClient, normalizeClient(clientID)), l.rate, l.burst)
}

func (l *CalculateLimiter) TryLockBatch(ctx context.Context, clientID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.batches.Acquire(ctx, clientID)
}

func (l *CalculateLimiter) ReleaseBatch(ctx context.Context, clientID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.batches.Release(ctx, clientID, token)
}

func normalizeClient(clientID string) string {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return "anonymous"
	}
	return clientID
}
