package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricewise/internal/discountrule/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const ruleColumns = `id, name, scope, scope_target_id, kind, value, priority, valid_from, valid_until, is_active, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rule *domain.DiscountRule) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO discount_rules (`+ruleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID,
		rule.Name,
		rule.Scope,
		rule.ScopeTargetID,
		rule.Kind,
		rule.Value,
		rule.Priority,
		rule.ValidFrom,
		rule.ValidUntil,
		rule.IsActive,
		rule.CreatedAt,
		rule.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, rule *domain.DiscountRule) error {
	return db.WithContext(ctx).Exec(
		`UPDATE discount_rules
		 SET name = ?, scope = ?, scope_target_id = ?, kind = ?, value = ?, priority = ?,
		     valid_from = ?, valid_until = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		rule.Name,
		rule.Scope,
		rule.ScopeTargetID,
		rule.Kind,
		rule.Value,
		rule.Priority,
		rule.ValidFrom,
		rule.ValidUntil,
		rule.IsActive,
		rule.UpdatedAt,
		rule.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.DiscountRule, error) {
	var rule domain.DiscountRule
	err := db.WithContext(ctx).Raw(
		`SELECT `+ruleColumns+` FROM discount_rules WHERE id = ?`,
		id,
	).Scan(&rule).Error
	if err != nil {
		return nil, err
	}
	if rule.ID == 0 {
		return nil, nil
	}
	return &rule, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRuleFilter) ([]domain.DiscountRule, error) {
	var rules []domain.DiscountRule
	stmt := db.WithContext(ctx).Model(&domain.DiscountRule{})
	if filter.Scope != "" {
		stmt = stmt.Where("scope = ?", filter.Scope)
	}
	if filter.TargetID != nil {
		stmt = stmt.Where("scope_target_id = ?", *filter.TargetID)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}
	err := stmt.
		Order("priority asc, id asc").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.DiscountRule, error) {
	var rules []domain.DiscountRule
	err := db.WithContext(ctx).Raw(
		`SELECT `+ruleColumns+` FROM discount_rules WHERE is_active = ? ORDER BY priority ASC, id ASC`,
		true,
	).Scan(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}
