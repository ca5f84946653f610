package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/pricewise/internal/cache"
	catalogdomain "github.com/smallbiznis/pricewise/internal/catalog/domain"
	"github.com/smallbiznis/pricewise/internal/clock"
	"github.com/smallbiznis/pricewise/internal/pricelist/domain"
	"github.com/smallbiznis/pricewise/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	ItemRepo catalogdomain.Repository
	Cache    cache.PricingCache
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	itemRepo catalogdomain.Repository
	cache    cache.PricingCache
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("pricelist.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		itemRepo: p.ItemRepo,
		cache:    p.Cache,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePriceListRequest) (domain.PriceList, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.PriceList{}, domain.ErrInvalidName
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = name
	}
	code = slug.Make(code)
	if code == "" {
		return domain.PriceList{}, domain.ErrInvalidCode
	}

	now := s.clock.Now()
	list := domain.PriceList{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		IsDefault: req.IsDefault,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if list.IsDefault {
			if err := s.repo.ClearDefault(ctx, tx, list.ID); err != nil {
				return err
			}
		}
		return s.repo.Insert(ctx, tx, &list)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.PriceList{}, domain.ErrDuplicateCode
		}
		return domain.PriceList{}, err
	}

	if list.IsDefault {
		s.cache.InvalidateDefaultPriceList(ctx)
	}
	s.log.Info("price list created",
		zap.String("price_list_id", list.ID.String()),
		zap.String("code", list.Code),
		zap.Bool("is_default", list.IsDefault),
	)
	return list, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdatePriceListRequest) (domain.PriceList, error) {
	list, err := s.find(ctx, req.ID)
	if err != nil {
		return domain.PriceList{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.PriceList{}, domain.ErrInvalidName
		}
		list.Name = name
	}
	if req.IsActive != nil {
		list.IsActive = *req.IsActive
	}
	list.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, list); err != nil {
		return domain.PriceList{}, err
	}
	if list.IsDefault {
		s.cache.InvalidateDefaultPriceList(ctx)
	}
	return *list, nil
}

// SetDefault flags one list as the system default and clears the flag everywhere else.
func (s *Service) SetDefault(ctx context.Context, id string) (domain.PriceList, error) {
	list, err := s.find(ctx, id)
	if err != nil {
		return domain.PriceList{}, err
	}

	list.IsDefault = true
	list.UpdatedAt = s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.ClearDefault(ctx, tx, list.ID); err != nil {
			return err
		}
		return s.repo.Update(ctx, tx, list)
	})
	if err != nil {
		return domain.PriceList{}, err
	}

	s.cache.InvalidateDefaultPriceList(ctx)
	s.log.Info("default price list changed", zap.String("price_list_id", list.ID.String()))
	return *list, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.PriceList, error) {
	list, err := s.find(ctx, id)
	if err != nil {
		return domain.PriceList{}, err
	}
	return *list, nil
}

func (s *Service) List(ctx context.Context) ([]domain.PriceList, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) PriceListExists(ctx context.Context, id snowflake.ID) (bool, error) {
	list, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return false, err
	}
	return list != nil, nil
}

func (s *Service) CreateTier(ctx context.Context, req domain.CreateTierRequest) (domain.PriceListTier, error) {
	list, err := s.find(ctx, req.PriceListID)
	if err != nil {
		return domain.PriceListTier{}, err
	}
	itemID, err := parseID(req.ItemID)
	if err != nil {
		return domain.PriceListTier{}, domain.ErrInvalidItem
	}
	if req.MinQuantity < 1 {
		return domain.PriceListTier{}, domain.ErrInvalidMinQuantity
	}
	if req.UnitPrice.IsNegative() {
		return domain.PriceListTier{}, domain.ErrInvalidUnitPrice
	}

	item, err := s.itemRepo.FindItemByID(ctx, s.db, itemID)
	if err != nil {
		return domain.PriceListTier{}, err
	}
	if item == nil {
		return domain.PriceListTier{}, domain.ErrItemNotFound
	}

	now := s.clock.Now()
	tier := domain.PriceListTier{
		ID:          s.genID.Generate(),
		PriceListID: list.ID,
		ItemID:      item.ID,
		MinQuantity: req.MinQuantity,
		UnitPrice:   req.UnitPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertTier(ctx, s.db, &tier); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.PriceListTier{}, domain.ErrDuplicateTier
		}
		return domain.PriceListTier{}, err
	}
	return tier, nil
}

func (s *Service) ListTiers(ctx context.Context, req domain.ListTierRequest) ([]domain.PriceListTier, error) {
	list, err := s.find(ctx, req.PriceListID)
	if err != nil {
		return nil, err
	}

	var itemID *snowflake.ID
	if strings.TrimSpace(req.ItemID) != "" {
		id, err := parseID(req.ItemID)
		if err != nil {
			return nil, domain.ErrInvalidItem
		}
		itemID = &id
	}
	return s.repo.ListTiers(ctx, s.db, list.ID, itemID)
}

func (s *Service) DeleteTier(ctx context.Context, id string) error {
	tierID, err := parseID(id)
	if err != nil {
		return err
	}
	tier, err := s.repo.FindTierByID(ctx, s.db, tierID)
	if err != nil {
		return err
	}
	if tier == nil {
		return domain.ErrTierNotFound
	}
	return s.repo.DeleteTier(ctx, s.db, tier.ID)
}

func (s *Service) find(ctx context.Context, id string) (*domain.PriceList, error) {
	listID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.FindByID(ctx, s.db, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, domain.ErrNotFound
	}
	return list, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
