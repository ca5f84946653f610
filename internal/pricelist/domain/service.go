package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreatePriceListRequest struct {
	Code      string
	Name      string
	IsDefault bool
}

type UpdatePriceListRequest struct {
	ID       string
	Name     *string
	IsActive *bool
}

type CreateTierRequest struct {
	PriceListID string
	ItemID      string
	MinQuantity int64
	UnitPrice   decimal.Decimal
}

type ListTierRequest struct {
	PriceListID string
	ItemID      string
}

type Service interface {
	Create(context.Context, CreatePriceListRequest) (PriceList, error)
	Update(context.Context, UpdatePriceListRequest) (PriceList, error)
	SetDefault(ctx context.Context, id string) (PriceList, error)
	Get(ctx context.Context, id string) (PriceList, error)
	List(context.Context) ([]PriceList, error)
	PriceListExists(ctx context.Context, id snowflake.ID) (bool, error)

	CreateTier(context.Context, CreateTierRequest) (PriceListTier, error)
	ListTiers(context.Context, ListTierRequest) ([]PriceListTier, error)
	DeleteTier(ctx context.Context, id string) error
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidCode        = errors.New("invalid_code")
	ErrInvalidMinQuantity = errors.New("invalid_min_quantity")
	ErrInvalidUnitPrice   = errors.New("invalid_unit_price")
	ErrInvalidItem        = errors.New("invalid_item")
	ErrDuplicateCode      = errors.New("duplicate_code")
	ErrDuplicateTier      = errors.New("duplicate_tier")
	ErrNotFound           = errors.New("not_found")
	ErrTierNotFound       = errors.New("tier_not_found")
	ErrItemNotFound       = errors.New("item_not_found")
)
