package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricewise/internal/customer/domain"
	"github.com/smallbiznis/pricewise/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customers (id, name, email, assigned_price_list_id, customer_group_id, is_active, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.AssignedPriceListID,
		customer.CustomerGroupID,
		customer.IsActive,
		customer.Metadata,
		customer.CreatedAt,
		customer.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers
		 SET name = ?, email = ?, assigned_price_list_id = ?, customer_group_id = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		customer.Name,
		customer.Email,
		customer.AssignedPriceListID,
		customer.CustomerGroupID,
		customer.IsActive,
		customer.UpdatedAt,
		customer.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, assigned_price_list_id, customer_group_id, is_active, metadata, created_at, updated_at
		 FROM customers WHERE id = ?`,
		id,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCustomerFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	stmt := db.WithContext(ctx).Model(&domain.Customer{})
	if filter.Email != "" {
		stmt = stmt.Where("email = ?", filter.Email)
	}
	if filter.GroupID != nil {
		stmt = stmt.Where("customer_group_id = ?", *filter.GroupID)
	}
	if filter.AfterID != 0 {
		stmt = stmt.Where("id > ?", filter.AfterID)
	}
	err := stmt.
		Order("id asc").
		Limit(page.Limit() + 1).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) InsertGroup(ctx context.Context, db *gorm.DB, group *domain.CustomerGroup) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customer_groups (id, code, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		group.ID,
		group.Code,
		group.Name,
		group.CreatedAt,
		group.UpdatedAt,
	).Error
}

func (r *repo) FindGroupByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CustomerGroup, error) {
	var group domain.CustomerGroup
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, created_at, updated_at FROM customer_groups WHERE id = ?`,
		id,
	).Scan(&group).Error
	if err != nil {
		return nil, err
	}
	if group.ID == 0 {
		return nil, nil
	}
	return &group, nil
}

func (r *repo) ListGroups(ctx context.Context, db *gorm.DB) ([]domain.CustomerGroup, error) {
	var groups []domain.CustomerGroup
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, created_at, updated_at FROM customer_groups ORDER BY code ASC`,
	).Scan(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}
