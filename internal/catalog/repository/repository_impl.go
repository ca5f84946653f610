package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricewise/internal/catalog/domain"
	"github.com/smallbiznis/pricewise/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const itemColumns = `id, code, name, list_price, cost, family_id, is_active, metadata, created_at, updated_at`

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *domain.Item) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.Code,
		item.Name,
		item.ListPrice,
		item.Cost,
		item.FamilyID,
		item.IsActive,
		item.Metadata,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) UpdateItem(ctx context.Context, db *gorm.DB, item *domain.Item) error {
	return db.WithContext(ctx).Exec(
		`UPDATE items
		 SET name = ?, list_price = ?, cost = ?, family_id = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		item.Name,
		item.ListPrice,
		item.Cost,
		item.FamilyID,
		item.IsActive,
		item.UpdatedAt,
		item.ID,
	).Error
}

func (r *repo) FindItemByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Item, error) {
	var item domain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT `+itemColumns+` FROM items WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, filter domain.ListItemFilter, page pagination.Pagination) ([]*domain.Item, error) {
	var items []*domain.Item
	stmt := db.WithContext(ctx).Model(&domain.Item{})
	if filter.FamilyID != nil {
		stmt = stmt.Where("family_id = ?", *filter.FamilyID)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}
	if filter.AfterID != 0 {
		stmt = stmt.Where("id > ?", filter.AfterID)
	}
	err := stmt.
		Order("id asc").
		Limit(page.Limit() + 1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InsertFamily(ctx context.Context, db *gorm.DB, family *domain.ItemFamily) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO item_families (id, code, name, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		family.ID,
		family.Code,
		family.Name,
		family.IsActive,
		family.CreatedAt,
		family.UpdatedAt,
	).Error
}

func (r *repo) FindFamilyByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ItemFamily, error) {
	var family domain.ItemFamily
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, is_active, created_at, updated_at
		 FROM item_families WHERE id = ?`,
		id,
	).Scan(&family).Error
	if err != nil {
		return nil, err
	}
	if family.ID == 0 {
		return nil, nil
	}
	return &family, nil
}

func (r *repo) ListFamilies(ctx context.Context, db *gorm.DB) ([]domain.ItemFamily, error) {
	var families []domain.ItemFamily
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, is_active, created_at, updated_at
		 FROM item_families ORDER BY code ASC`,
	).Scan(&families).Error
	if err != nil {
		return nil, err
	}
	return families, nil
}
