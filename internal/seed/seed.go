package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
	"gorm.io/gorm"
)

const defaultPriceListName = "Standard"

// EnsureDefaultPriceList creates the system default price list when no list
// is flagged as default yet. It reports whether a row was inserted.
func EnsureDefaultPriceList(ctx context.Context, db *gorm.DB, node *snowflake.Node, now time.Time) (bool, error) {
	if db == nil {
		return false, errors.New("seed database handle is required")
	}
	if node == nil {
		return false, errors.New("seed id generator is required")
	}

	created := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Raw(
			`SELECT COUNT(1) FROM price_lists WHERE is_default = ?`, true,
		).Scan(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		code := slug.Make(defaultPriceListName)
		var existing int64
		if err := tx.WithContext(ctx).Raw(
			`SELECT COUNT(1) FROM price_lists WHERE code = ?`, code,
		).Scan(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return tx.WithContext(ctx).Exec(
				`UPDATE price_lists SET is_default = ?, is_active = ?, updated_at = ? WHERE code = ?`,
				true, true, now.UTC(), code,
			).Error
		}

		list := pricelistdomain.PriceList{
			ID:        node.Generate(),
			Code:      code,
			Name:      defaultPriceListName,
			IsDefault: true,
			IsActive:  true,
			CreatedAt: now.UTC(),
			UpdatedAt: now.UTC(),
		}
		if err := tx.WithContext(ctx).Create(&list).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}
