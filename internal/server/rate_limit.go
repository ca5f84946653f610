package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/pricewise/internal/observability/context"
	"github.com/smallbiznis/pricewise/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/pricewise/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	rateLimitReasonClientRate       = "client-rate"
	rateLimitReasonBatchConcurrency = "batch-concurrency"
)

// PricingRateLimit applies the per-client token bucket to the pricing routes.
func (s *Server) PricingRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)
		client := obscontext.ClientIDFromContext(ctx)

		result, err := s.limiter.Allow(ctx, client)
		if err != nil {
			logger.FromContext(ctx).Warn("pricing rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			denyRateLimit(c, endpoint, rateLimitReasonClientRate, s.obsMetrics)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		s.obsMetrics.RecordRateLimitAllowed(ctx, endpoint)
		c.Next()
	}
}

// BatchConcurrencyLimit lets each client run one batch at a time.
func (s *Server) BatchConcurrencyLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		client := obscontext.ClientIDFromContext(ctx)

		token, ok, err := s.limiter.TryLockBatch(ctx, client)
		if err != nil {
			logger.FromContext(ctx).Warn("pricing batch lock failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !ok {
			c.Header("Retry-After", "1")
			denyRateLimit(c, normalizeRateLimitEndpoint(c), rateLimitReasonBatchConcurrency, s.obsMetrics)
			return
		}
		defer func() {
			if err := s.limiter.ReleaseBatch(context.WithoutCancel(ctx), client, token); err != nil {
				logger.FromContext(ctx).Warn("pricing batch unlock failed", zap.Error(err))
			}
		}()

		c.Next()
	}
}

func denyRateLimit(c *gin.Context, endpoint, reason string, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("pricing rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)

	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
