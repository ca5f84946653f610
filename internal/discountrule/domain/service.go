package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateRuleRequest struct {
	Name          string
	Scope         string
	ScopeTargetID string
	Kind          string
	Value         decimal.Decimal
	Priority      int
	ValidFrom     *time.Time
	ValidUntil    *time.Time
}

// UpdateRuleRequest changes only non-nil fields; the merged rule is validated as a whole.
type UpdateRuleRequest struct {
	ID            string
	Name          *string
	Scope         *string
	ScopeTargetID *string
	Kind          *string
	Value         *decimal.Decimal
	Priority      *int
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	ClearWindow   bool
	IsActive      *bool
}

type ListRuleRequest struct {
	Scope    string
	TargetID string
	IsActive *bool
}

type ListRuleFilter struct {
	Scope    Scope
	TargetID *snowflake.ID
	IsActive *bool
}

type Service interface {
	Create(context.Context, CreateRuleRequest) (DiscountRule, error)
	Update(context.Context, UpdateRuleRequest) (DiscountRule, error)
	Deactivate(ctx context.Context, id string) (DiscountRule, error)
	Get(ctx context.Context, id string) (DiscountRule, error)
	List(context.Context, ListRuleRequest) ([]DiscountRule, error)
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidScope  = errors.New("invalid_scope")
	ErrInvalidTarget = errors.New("invalid_scope_target")
	ErrInvalidKind   = errors.New("invalid_kind")
	ErrInvalidValue  = errors.New("invalid_value")
	ErrInvalidWindow = errors.New("invalid_validity_window")
	ErrNotFound      = errors.New("not_found")
)

// Validate checks a rule the way it must hold before it is stored.
func Validate(rule DiscountRule) error {
	if rule.Name == "" {
		return ErrInvalidName
	}
	if !rule.Scope.Valid() {
		return ErrInvalidScope
	}
	if rule.Scope == ScopeGlobal && rule.ScopeTargetID != nil {
		return ErrInvalidTarget
	}
	if rule.Scope != ScopeGlobal && (rule.ScopeTargetID == nil || *rule.ScopeTargetID == 0) {
		return ErrInvalidTarget
	}
	if !rule.Kind.Valid() {
		return ErrInvalidKind
	}
	if !rule.Value.IsPositive() {
		return ErrInvalidValue
	}
	if rule.Kind == KindPercentage && rule.Value.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidValue
	}
	if rule.ValidFrom != nil && rule.ValidUntil != nil && rule.ValidUntil.Before(*rule.ValidFrom) {
		return ErrInvalidWindow
	}
	return nil
}
