package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricewise/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	InsertItem(ctx context.Context, db *gorm.DB, item *Item) error
	UpdateItem(ctx context.Context, db *gorm.DB, item *Item) error
	FindItemByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Item, error)
	ListItems(ctx context.Context, db *gorm.DB, filter ListItemFilter, page pagination.Pagination) ([]*Item, error)

	InsertFamily(ctx context.Context, db *gorm.DB, family *ItemFamily) error
	FindFamilyByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ItemFamily, error)
	ListFamilies(ctx context.Context, db *gorm.DB) ([]ItemFamily, error)
}
