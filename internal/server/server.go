package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	catalogdomain "github.com/smallbiznis/pricewise/internal/catalog/domain"
	"github.com/smallbiznis/pricewise/internal/config"
	customerdomain "github.com/smallbiznis/pricewise/internal/customer/domain"
	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
	"github.com/smallbiznis/pricewise/internal/observability"
	obsmiddleware "github.com/smallbiznis/pricewise/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/pricewise/internal/observability/metrics"
	obstracing "github.com/smallbiznis/pricewise/internal/observability/tracing"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
	pricingdomain "github.com/smallbiznis/pricewise/internal/pricing/domain"
	"github.com/smallbiznis/pricewise/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// pricingLimiter is the part of ratelimit.CalculateLimiter the pricing routes use.
type pricingLimiter interface {
	Enabled() bool
	Allow(ctx context.Context, clientID string) (*ratelimit.RateLimitResult, error)
	TryLockBatch(ctx context.Context, clientID string) (string, bool, error)
	ReleaseBatch(ctx context.Context, clientID, token string) error
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	pricingCfg      *config.PricingConfigHolder
	catalogSvc      catalogdomain.Service
	customerSvc     customerdomain.Service
	priceListSvc    pricelistdomain.Service
	discountRuleSvc discountruledomain.Service
	pricingSvc      pricingdomain.Service
	obsMetrics      *obsmetrics.Metrics
	limiter         pricingLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	PricingCfg      *config.PricingConfigHolder
	CatalogSvc      catalogdomain.Service
	CustomerSvc     customerdomain.Service
	PriceListSvc    pricelistdomain.Service
	DiscountRuleSvc discountruledomain.Service
	PricingSvc      pricingdomain.Service
	ObsMetrics      *obsmetrics.Metrics         `optional:"true"`
	Limiter         *ratelimit.CalculateLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		pricingCfg:      p.PricingCfg,
		catalogSvc:      p.CatalogSvc,
		customerSvc:     p.CustomerSvc,
		priceListSvc:    p.PriceListSvc,
		discountRuleSvc: p.DiscountRuleSvc,
		pricingSvc:      p.PricingSvc,
		obsMetrics:      p.ObsMetrics,
	}
	if p.Limiter != nil {
		svc.limiter = p.Limiter
	}

	svc.registerPricingRoutes()
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPricingRoutes() {
	pricing := s.engine.Group("/api/pricing", s.PricingRateLimit())

	pricing.POST("/calculate", s.CalculatePrice)
	pricing.POST("/calculate/batch", s.BatchConcurrencyLimit(), s.CalculatePriceBatch)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Items --------
	api.GET("/items", s.ListItems)
	api.POST("/items", s.CreateItem)
	api.GET("/items/:id", s.GetItemByID)
	api.PATCH("/items/:id", s.UpdateItem)

	// -------- Item Families --------
	api.GET("/item-families", s.ListItemFamilies)
	api.POST("/item-families", s.CreateItemFamily)
	api.GET("/item-families/:id", s.GetItemFamilyByID)

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PATCH("/customers/:id", s.UpdateCustomer)

	// -------- Customer Groups --------
	api.GET("/customer-groups", s.ListCustomerGroups)
	api.POST("/customer-groups", s.CreateCustomerGroup)

	// -------- Price Lists --------
	api.GET("/price-lists", s.ListPriceLists)
	api.POST("/price-lists", s.CreatePriceList)
	api.GET("/price-lists/:id", s.GetPriceListByID)
	api.PATCH("/price-lists/:id", s.UpdatePriceList)
	api.POST("/price-lists/:id/set-default", s.SetDefaultPriceList)
	api.GET("/price-lists/:id/tiers", s.ListPriceListTiers)
	api.POST("/price-lists/:id/tiers", s.CreatePriceListTier)
	api.DELETE("/price-list-tiers/:id", s.DeletePriceListTier)

	// -------- Discount Rules --------
	api.GET("/discount-rules", s.ListDiscountRules)
	api.POST("/discount-rules", s.CreateDiscountRule)
	api.GET("/discount-rules/:id", s.GetDiscountRuleByID)
	api.PATCH("/discount-rules/:id", s.UpdateDiscountRule)
	api.POST("/discount-rules/:id/deactivate", s.DeactivateDiscountRule)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
