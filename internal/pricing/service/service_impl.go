package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricewise/internal/clock"
	"github.com/smallbiznis/pricewise/internal/config"
	"github.com/smallbiznis/pricewise/internal/observability/logger"
	"github.com/smallbiznis/pricewise/internal/observability/metrics"
	"github.com/smallbiznis/pricewise/internal/observability/tracing"
	"github.com/smallbiznis/pricewise/internal/pricing/domain"
	"github.com/smallbiznis/pricewise/internal/pricing/engine"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Store   domain.Store
	Pricing *config.PricingConfigHolder
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	store   domain.Store
	pricing *config.PricingConfigHolder
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("pricing.service"),
		clock:   p.Clock,
		store:   p.Store,
		pricing: p.Pricing,
		metrics: p.Metrics,
		tracer:  otel.Tracer("pricewise/pricing"),
	}
}

func (s *Service) Calculate(ctx context.Context, req domain.CalculateRequest) (domain.PriceCalculation, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.calculate")
	defer span.End()
	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("pricing.item_id", strings.TrimSpace(req.ItemID)),
		attribute.String("pricing.customer_id", strings.TrimSpace(req.CustomerID)),
		attribute.Int64("pricing.quantity", req.Quantity),
	)...)

	calc, skipped, err := s.calculate(ctx, req)
	for _, rule := range skipped {
		s.metrics.RecordRuleSkipped(ctx, rule.Reason)
		logger.WithContext(ctx, s.log).Warn("discount rule skipped",
			zap.String("rule_id", rule.RuleID.String()),
			zap.String("rule_name", rule.RuleName),
			zap.String("reason", rule.Reason),
			zap.Error(rule.Err()),
		)
	}

	if err != nil {
		s.metrics.RecordCalculation(ctx, outcomeOf(err), "")
		if !domain.IsCalculationError(err) {
			span.RecordError(tracing.SafeError(err))
			span.SetStatus(codes.Error, "calculation failed")
			logger.WithContext(ctx, s.log).Error("price calculation failed", zap.Error(err))
		}
		return domain.PriceCalculation{}, err
	}

	s.metrics.RecordCalculation(ctx, "ok", string(calc.PriceSource))
	for _, applied := range calc.DiscountsApplied {
		s.metrics.RecordRuleApplied(ctx, string(applied.Scope))
	}
	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("pricing.price_source", string(calc.PriceSource)),
		attribute.Int("pricing.rules_applied", len(calc.DiscountsApplied)),
		attribute.Int("pricing.rules_skipped", len(skipped)),
	)...)
	return calc, nil
}

func (s *Service) calculate(ctx context.Context, req domain.CalculateRequest) (domain.PriceCalculation, []domain.SkippedRule, error) {
	if req.Quantity < 1 {
		return domain.PriceCalculation{}, nil, domain.ErrInvalidQuantity
	}
	itemID, err := parseID(req.ItemID)
	if err != nil {
		return domain.PriceCalculation{}, nil, domain.ErrItemNotFound
	}
	var customerID *snowflake.ID
	if strings.TrimSpace(req.CustomerID) != "" {
		id, err := parseID(req.CustomerID)
		if err != nil {
			return domain.PriceCalculation{}, nil, domain.ErrCustomerNotFound
		}
		customerID = &id
	}

	cfg := s.pricing.Get()
	snap, err := s.loadSnapshot(ctx, itemID, customerID, s.clock.Now())
	if err != nil {
		return domain.PriceCalculation{}, nil, err
	}

	return engine.Calculate(snap, req.Quantity, engine.Options{
		Scale:            cfg.Scale,
		CostFloorEnabled: cfg.CostFloorEnabled,
	})
}

// loadSnapshot reads everything a calculation needs inside one transaction so
// rules and prices cannot change between resolution and discounting.
func (s *Service) loadSnapshot(ctx context.Context, itemID snowflake.ID, customerID *snowflake.ID, now time.Time) (domain.Snapshot, error) {
	snap := domain.Snapshot{Now: now}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.store.GetItem(ctx, tx, itemID)
		if err != nil {
			return fmt.Errorf("load item: %w", err)
		}
		if item == nil || !item.IsActive {
			return domain.ErrItemNotFound
		}
		snap.Item = item

		if customerID != nil {
			customer, err := s.store.GetCustomer(ctx, tx, *customerID)
			if err != nil {
				return fmt.Errorf("load customer: %w", err)
			}
			if customer == nil || !customer.IsActive {
				return domain.ErrCustomerNotFound
			}
			snap.Customer = customer

			assigned, err := s.store.GetAssignedPriceList(ctx, tx, customer)
			if err != nil {
				return fmt.Errorf("load assigned price list: %w", err)
			}
			if assigned != nil {
				snap.AssignedPriceList = assigned
				if snap.AssignedTiers, err = s.store.GetTiers(ctx, tx, assigned.ID, item.ID); err != nil {
					return fmt.Errorf("load assigned tiers: %w", err)
				}
			}
		}

		family, err := s.store.GetFamily(ctx, tx, item)
		if err != nil {
			return fmt.Errorf("load item family: %w", err)
		}
		snap.Family = family

		def, err := s.store.GetDefaultPriceList(ctx, tx)
		if err != nil {
			return fmt.Errorf("load default price list: %w", err)
		}
		if def != nil {
			snap.DefaultPriceList = def
			if snap.DefaultTiers, err = s.store.GetTiers(ctx, tx, def.ID, item.ID); err != nil {
				return fmt.Errorf("load default tiers: %w", err)
			}
		}

		rules, err := s.store.GetActiveDiscountRules(ctx, tx, now)
		if err != nil {
			return fmt.Errorf("load discount rules: %w", err)
		}
		snap.Rules = rules
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, errors.New("invalid_id")
	}
	return id, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, domain.ErrCustomerNotFound):
		return "customer_not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
