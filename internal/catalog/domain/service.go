package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pricewise/pkg/db/pagination"
)

type CreateItemRequest struct {
	Code      string
	Name      string
	ListPrice decimal.Decimal
	Cost      decimal.Decimal
	FamilyID  string
	Metadata  map[string]any
}

type UpdateItemRequest struct {
	ID        string
	Name      *string
	ListPrice *decimal.Decimal
	Cost      *decimal.Decimal
	FamilyID  *string
	IsActive  *bool
}

type ListItemRequest struct {
	pagination.Pagination
	FamilyID string
	IsActive *bool
}

type ListItemFilter struct {
	FamilyID *snowflake.ID
	IsActive *bool
	AfterID  snowflake.ID
}

type ListItemResponse struct {
	pagination.PageInfo
	Items []Item `json:"items"`
}

type CreateFamilyRequest struct {
	Code string
	Name string
}

type Service interface {
	CreateItem(context.Context, CreateItemRequest) (Item, error)
	UpdateItem(context.Context, UpdateItemRequest) (Item, error)
	GetItem(ctx context.Context, id string) (Item, error)
	ListItems(context.Context, ListItemRequest) (ListItemResponse, error)

	CreateFamily(context.Context, CreateFamilyRequest) (ItemFamily, error)
	GetFamily(ctx context.Context, id string) (ItemFamily, error)
	ListFamilies(context.Context) ([]ItemFamily, error)
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidCode      = errors.New("invalid_code")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidListPrice = errors.New("invalid_list_price")
	ErrInvalidCost      = errors.New("invalid_cost")
	ErrInvalidFamily    = errors.New("invalid_family")
	ErrDuplicateCode    = errors.New("duplicate_code")
	ErrNotFound         = errors.New("not_found")
	ErrFamilyNotFound   = errors.New("family_not_found")
)
