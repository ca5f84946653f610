package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricewise/internal/pricelist/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const listColumns = `id, code, name, is_default, is_active, created_at, updated_at`

const tierColumns = `id, price_list_id, item_id, min_quantity, unit_price, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, list *domain.PriceList) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO price_lists (`+listColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		list.ID,
		list.Code,
		list.Name,
		list.IsDefault,
		list.IsActive,
		list.CreatedAt,
		list.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, list *domain.PriceList) error {
	return db.WithContext(ctx).Exec(
		`UPDATE price_lists SET name = ?, is_default = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		list.Name,
		list.IsDefault,
		list.IsActive,
		list.UpdatedAt,
		list.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PriceList, error) {
	var list domain.PriceList
	err := db.WithContext(ctx).Raw(
		`SELECT `+listColumns+` FROM price_lists WHERE id = ?`,
		id,
	).Scan(&list).Error
	if err != nil {
		return nil, err
	}
	if list.ID == 0 {
		return nil, nil
	}
	return &list, nil
}

// FindDefault returns the flagged default list whether or not it is active.
func (r *repo) FindDefault(ctx context.Context, db *gorm.DB) (*domain.PriceList, error) {
	var list domain.PriceList
	err := db.WithContext(ctx).Raw(
		`SELECT `+listColumns+` FROM price_lists WHERE is_default = ? ORDER BY id ASC LIMIT 1`,
		true,
	).Scan(&list).Error
	if err != nil {
		return nil, err
	}
	if list.ID == 0 {
		return nil, nil
	}
	return &list, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.PriceList, error) {
	var lists []domain.PriceList
	err := db.WithContext(ctx).Raw(
		`SELECT ` + listColumns + ` FROM price_lists ORDER BY id ASC`,
	).Scan(&lists).Error
	if err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *repo) ClearDefault(ctx context.Context, db *gorm.DB, exceptID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE price_lists SET is_default = ? WHERE is_default = ? AND id <> ?`,
		false,
		true,
		exceptID,
	).Error
}

func (r *repo) InsertTier(ctx context.Context, db *gorm.DB, tier *domain.PriceListTier) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO price_list_tiers (`+tierColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tier.ID,
		tier.PriceListID,
		tier.ItemID,
		tier.MinQuantity,
		tier.UnitPrice,
		tier.CreatedAt,
		tier.UpdatedAt,
	).Error
}

func (r *repo) FindTierByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PriceListTier, error) {
	var tier domain.PriceListTier
	err := db.WithContext(ctx).Raw(
		`SELECT `+tierColumns+` FROM price_list_tiers WHERE id = ?`,
		id,
	).Scan(&tier).Error
	if err != nil {
		return nil, err
	}
	if tier.ID == 0 {
		return nil, nil
	}
	return &tier, nil
}

func (r *repo) DeleteTier(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM price_list_tiers WHERE id = ?`, id).Error
}

func (r *repo) ListTiers(ctx context.Context, db *gorm.DB, priceListID snowflake.ID, itemID *snowflake.ID) ([]domain.PriceListTier, error) {
	var tiers []domain.PriceListTier
	stmt := db.WithContext(ctx).
		Model(&domain.PriceListTier{}).
		Where("price_list_id = ?", priceListID)
	if itemID != nil {
		stmt = stmt.Where("item_id = ?", *itemID)
	}
	err := stmt.
		Order("item_id asc, min_quantity asc").
		Find(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}
