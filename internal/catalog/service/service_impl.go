package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/pricewise/internal/catalog/domain"
	"github.com/smallbiznis/pricewise/internal/clock"
	"github.com/smallbiznis/pricewise/pkg/db"
	"github.com/smallbiznis/pricewise/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CreateItem(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error) {
	code := slug.Make(strings.TrimSpace(req.Code))
	if code == "" {
		return domain.Item{}, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Item{}, domain.ErrInvalidName
	}
	if req.ListPrice.IsNegative() {
		return domain.Item{}, domain.ErrInvalidListPrice
	}
	if req.Cost.IsNegative() {
		return domain.Item{}, domain.ErrInvalidCost
	}

	familyID, err := s.resolveFamily(ctx, req.FamilyID)
	if err != nil {
		return domain.Item{}, err
	}

	now := s.clock.Now()
	item := domain.Item{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		ListPrice: req.ListPrice,
		Cost:      req.Cost,
		FamilyID:  familyID,
		IsActive:  true,
		Metadata:  datatypes.JSONMap(req.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if item.Metadata == nil {
		item.Metadata = datatypes.JSONMap{}
	}

	if err := s.repo.InsertItem(ctx, s.db, &item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Item{}, domain.ErrDuplicateCode
		}
		return domain.Item{}, err
	}

	s.log.Info("item created", zap.String("item_id", item.ID.String()), zap.String("code", item.Code))
	return item, nil
}

func (s *Service) UpdateItem(ctx context.Context, req domain.UpdateItemRequest) (domain.Item, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Item{}, err
	}

	item, err := s.repo.FindItemByID(ctx, s.db, id)
	if err != nil {
		return domain.Item{}, err
	}
	if item == nil {
		return domain.Item{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Item{}, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.ListPrice != nil {
		if req.ListPrice.IsNegative() {
			return domain.Item{}, domain.ErrInvalidListPrice
		}
		item.ListPrice = *req.ListPrice
	}
	if req.Cost != nil {
		if req.Cost.IsNegative() {
			return domain.Item{}, domain.ErrInvalidCost
		}
		item.Cost = *req.Cost
	}
	if req.FamilyID != nil {
		familyID, err := s.resolveFamily(ctx, *req.FamilyID)
		if err != nil {
			return domain.Item{}, err
		}
		item.FamilyID = familyID
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateItem(ctx, s.db, item); err != nil {
		return domain.Item{}, err
	}
	return *item, nil
}

func (s *Service) GetItem(ctx context.Context, id string) (domain.Item, error) {
	itemID, err := parseID(id)
	if err != nil {
		return domain.Item{}, err
	}

	item, err := s.repo.FindItemByID(ctx, s.db, itemID)
	if err != nil {
		return domain.Item{}, err
	}
	if item == nil {
		return domain.Item{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) ListItems(ctx context.Context, req domain.ListItemRequest) (domain.ListItemResponse, error) {
	filter := domain.ListItemFilter{IsActive: req.IsActive}
	if strings.TrimSpace(req.FamilyID) != "" {
		familyID, err := parseID(req.FamilyID)
		if err != nil {
			return domain.ListItemResponse{}, domain.ErrInvalidFamily
		}
		filter.FamilyID = &familyID
	}

	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListItemResponse{}, domain.ErrInvalidID
	}
	if cursor != nil {
		afterID, err := parseID(cursor.ID)
		if err != nil {
			return domain.ListItemResponse{}, err
		}
		filter.AfterID = afterID
	}

	rows, err := s.repo.ListItems(ctx, s.db, filter, req.Pagination)
	if err != nil {
		return domain.ListItemResponse{}, err
	}

	rows, pageInfo := pagination.Trim(rows, req.Limit(), func(item *domain.Item) string {
		return item.ID.String()
	})

	items := make([]domain.Item, 0, len(rows))
	for _, item := range rows {
		if item == nil {
			continue
		}
		items = append(items, *item)
	}

	return domain.ListItemResponse{PageInfo: pageInfo, Items: items}, nil
}

func (s *Service) CreateFamily(ctx context.Context, req domain.CreateFamilyRequest) (domain.ItemFamily, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ItemFamily{}, domain.ErrInvalidName
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = name
	}
	code = slug.Make(code)
	if code == "" {
		return domain.ItemFamily{}, domain.ErrInvalidCode
	}

	now := s.clock.Now()
	family := domain.ItemFamily{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertFamily(ctx, s.db, &family); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ItemFamily{}, domain.ErrDuplicateCode
		}
		return domain.ItemFamily{}, err
	}
	return family, nil
}

func (s *Service) GetFamily(ctx context.Context, id string) (domain.ItemFamily, error) {
	familyID, err := parseID(id)
	if err != nil {
		return domain.ItemFamily{}, err
	}
	family, err := s.repo.FindFamilyByID(ctx, s.db, familyID)
	if err != nil {
		return domain.ItemFamily{}, err
	}
	if family == nil {
		return domain.ItemFamily{}, domain.ErrFamilyNotFound
	}
	return *family, nil
}

func (s *Service) ListFamilies(ctx context.Context) ([]domain.ItemFamily, error) {
	return s.repo.ListFamilies(ctx, s.db)
}

// resolveFamily returns nil for an empty reference and ErrFamilyNotFound for a dangling one.
func (s *Service) resolveFamily(ctx context.Context, value string) (*snowflake.ID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	id, err := parseID(value)
	if err != nil {
		return nil, domain.ErrInvalidFamily
	}
	family, err := s.repo.FindFamilyByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, domain.ErrFamilyNotFound
	}
	return &family.ID, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

