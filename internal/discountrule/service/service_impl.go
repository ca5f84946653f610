package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricewise/internal/cache"
	"github.com/smallbiznis/pricewise/internal/clock"
	"github.com/smallbiznis/pricewise/internal/discountrule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Cache cache.PricingCache
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	cache cache.PricingCache
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("discountrule.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		cache: p.Cache,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRuleRequest) (domain.DiscountRule, error) {
	targetID, err := parseTarget(req.ScopeTargetID)
	if err != nil {
		return domain.DiscountRule{}, err
	}

	now := s.clock.Now()
	rule := domain.DiscountRule{
		ID:            s.genID.Generate(),
		Name:          strings.TrimSpace(req.Name),
		Scope:         domain.Scope(normalize(req.Scope)),
		ScopeTargetID: targetID,
		Kind:          domain.Kind(normalize(req.Kind)),
		Value:         req.Value,
		Priority:      req.Priority,
		ValidFrom:     utcPtr(req.ValidFrom),
		ValidUntil:    utcPtr(req.ValidUntil),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := domain.Validate(rule); err != nil {
		return domain.DiscountRule{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &rule); err != nil {
		return domain.DiscountRule{}, err
	}
	s.cache.InvalidateRules(ctx)

	s.log.Info("discount rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("scope", string(rule.Scope)),
		zap.String("kind", string(rule.Kind)),
		zap.Int("priority", rule.Priority),
	)
	return rule, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRuleRequest) (domain.DiscountRule, error) {
	rule, err := s.find(ctx, req.ID)
	if err != nil {
		return domain.DiscountRule{}, err
	}

	if req.Name != nil {
		rule.Name = strings.TrimSpace(*req.Name)
	}
	if req.Scope != nil {
		rule.Scope = domain.Scope(normalize(*req.Scope))
	}
	if req.ScopeTargetID != nil {
		targetID, err := parseTarget(*req.ScopeTargetID)
		if err != nil {
			return domain.DiscountRule{}, err
		}
		rule.ScopeTargetID = targetID
	}
	if req.Kind != nil {
		rule.Kind = domain.Kind(normalize(*req.Kind))
	}
	if req.Value != nil {
		rule.Value = *req.Value
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.ClearWindow {
		rule.ValidFrom = nil
		rule.ValidUntil = nil
	}
	if req.ValidFrom != nil {
		rule.ValidFrom = utcPtr(req.ValidFrom)
	}
	if req.ValidUntil != nil {
		rule.ValidUntil = utcPtr(req.ValidUntil)
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := domain.Validate(*rule); err != nil {
		return domain.DiscountRule{}, err
	}
	rule.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, rule); err != nil {
		return domain.DiscountRule{}, err
	}
	s.cache.InvalidateRules(ctx)
	return *rule, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) (domain.DiscountRule, error) {
	rule, err := s.find(ctx, id)
	if err != nil {
		return domain.DiscountRule{}, err
	}
	if !rule.IsActive {
		return *rule, nil
	}

	rule.IsActive = false
	rule.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, rule); err != nil {
		return domain.DiscountRule{}, err
	}
	s.cache.InvalidateRules(ctx)

	s.log.Info("discount rule deactivated", zap.String("rule_id", rule.ID.String()))
	return *rule, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.DiscountRule, error) {
	rule, err := s.find(ctx, id)
	if err != nil {
		return domain.DiscountRule{}, err
	}
	return *rule, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRuleRequest) ([]domain.DiscountRule, error) {
	filter := domain.ListRuleFilter{IsActive: req.IsActive}
	if scope := normalize(req.Scope); scope != "" {
		filter.Scope = domain.Scope(scope)
		if !filter.Scope.Valid() {
			return nil, domain.ErrInvalidScope
		}
	}
	if strings.TrimSpace(req.TargetID) != "" {
		targetID, err := parseTarget(req.TargetID)
		if err != nil {
			return nil, err
		}
		filter.TargetID = targetID
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) find(ctx context.Context, id string) (*domain.DiscountRule, error) {
	ruleID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || ruleID == 0 {
		return nil, domain.ErrInvalidID
	}
	rule, err := s.repo.FindByID(ctx, s.db, ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, domain.ErrNotFound
	}
	return rule, nil
}

// parseTarget maps an empty reference to nil so global rules carry no target.
func parseTarget(value string) (*snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(value)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidTarget
	}
	return &id, nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
