package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricewise/pkg/db/pagination"
)

type ListCustomerRequest struct {
	pagination.Pagination
	Email   string
	GroupID string
}

type ListCustomerFilter struct {
	Email   string
	GroupID *snowflake.ID
	AfterID snowflake.ID
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name                string
	Email               string
	AssignedPriceListID string
	CustomerGroupID     string
	Metadata            map[string]any
}

// UpdateCustomerRequest changes only the non-nil fields. An empty reference string clears it.
type UpdateCustomerRequest struct {
	ID                  string
	Name                *string
	Email               *string
	AssignedPriceListID *string
	CustomerGroupID     *string
	IsActive            *bool
}

type CreateGroupRequest struct {
	Code string
	Name string
}

// PriceListLookup confirms a price list exists before a customer is pointed at it.
type PriceListLookup interface {
	PriceListExists(ctx context.Context, id snowflake.ID) (bool, error)
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(ctx context.Context, id string) (Customer, error)

	CreateGroup(context.Context, CreateGroupRequest) (CustomerGroup, error)
	ListGroups(context.Context) ([]CustomerGroup, error)
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidCode      = errors.New("invalid_code")
	ErrInvalidGroup     = errors.New("invalid_customer_group")
	ErrInvalidPriceList = errors.New("invalid_price_list")
	ErrDuplicateCode    = errors.New("duplicate_code")
	ErrNotFound         = errors.New("not_found")
	ErrGroupNotFound    = errors.New("customer_group_not_found")
)
