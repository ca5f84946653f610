package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/pricewise/internal/clock"
	"github.com/smallbiznis/pricewise/internal/customer/domain"
	"github.com/smallbiznis/pricewise/pkg/db"
	"github.com/smallbiznis/pricewise/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	PriceLists domain.PriceListLookup
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	priceLists domain.PriceListLookup
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("customer.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		priceLists: p.PriceLists,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.Customer{}, err
	}

	priceListID, err := s.resolvePriceList(ctx, req.AssignedPriceListID)
	if err != nil {
		return domain.Customer{}, err
	}
	groupID, err := s.resolveGroup(ctx, req.CustomerGroupID)
	if err != nil {
		return domain.Customer{}, err
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:                  s.genID.Generate(),
		Name:                name,
		Email:               email,
		AssignedPriceListID: priceListID,
		CustomerGroupID:     groupID,
		IsActive:            true,
		Metadata:            datatypes.JSONMap(req.Metadata),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if customer.Metadata == nil {
		customer.Metadata = datatypes.JSONMap{}
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}

	return customer, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	customer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Customer{}, domain.ErrInvalidName
		}
		customer.Name = name
	}
	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return domain.Customer{}, err
		}
		customer.Email = email
	}
	if req.AssignedPriceListID != nil {
		priceListID, err := s.resolvePriceList(ctx, *req.AssignedPriceListID)
		if err != nil {
			return domain.Customer{}, err
		}
		customer.AssignedPriceListID = priceListID
	}
	if req.CustomerGroupID != nil {
		groupID, err := s.resolveGroup(ctx, *req.CustomerGroupID)
		if err != nil {
			return domain.Customer{}, err
		}
		customer.CustomerGroupID = groupID
	}
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}
	customer.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, customer); err != nil {
		return domain.Customer{}, err
	}

	s.log.Info("customer updated", zap.String("customer_id", customer.ID.String()))
	return *customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	filter := domain.ListCustomerFilter{
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
	}
	if strings.TrimSpace(req.GroupID) != "" {
		groupID, err := parseID(req.GroupID)
		if err != nil {
			return domain.ListCustomerResponse{}, domain.ErrInvalidGroup
		}
		filter.GroupID = &groupID
	}

	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListCustomerResponse{}, domain.ErrInvalidID
	}
	if cursor != nil {
		if filter.AfterID, err = parseID(cursor.ID); err != nil {
			return domain.ListCustomerResponse{}, err
		}
	}

	rows, err := s.repo.List(ctx, s.db, filter, req.Pagination)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}
	rows, pageInfo := pagination.Trim(rows, req.Limit(), func(c *domain.Customer) string {
		return c.ID.String()
	})

	customers := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		customers = append(customers, *row)
	}

	return domain.ListCustomerResponse{PageInfo: pageInfo, Customers: customers}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	customerID, err := parseID(id)
	if err != nil {
		return domain.Customer{}, err
	}

	customer, err := s.repo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	return *customer, nil
}

func (s *Service) CreateGroup(ctx context.Context, req domain.CreateGroupRequest) (domain.CustomerGroup, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.CustomerGroup{}, domain.ErrInvalidName
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = name
	}
	code = slug.Make(code)
	if code == "" {
		return domain.CustomerGroup{}, domain.ErrInvalidCode
	}

	now := s.clock.Now()
	group := domain.CustomerGroup{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertGroup(ctx, s.db, &group); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.CustomerGroup{}, domain.ErrDuplicateCode
		}
		return domain.CustomerGroup{}, err
	}
	return group, nil
}

func (s *Service) ListGroups(ctx context.Context) ([]domain.CustomerGroup, error) {
	return s.repo.ListGroups(ctx, s.db)
}

func (s *Service) resolvePriceList(ctx context.Context, value string) (*snowflake.ID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	id, err := parseID(value)
	if err != nil {
		return nil, domain.ErrInvalidPriceList
	}
	if s.priceLists != nil {
		ok, err := s.priceLists.PriceListExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrInvalidPriceList
		}
	}
	return &id, nil
}

func (s *Service) resolveGroup(ctx context.Context, value string) (*snowflake.ID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	id, err := parseID(value)
	if err != nil {
		return nil, domain.ErrInvalidGroup
	}
	group, err := s.repo.FindGroupByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, domain.ErrGroupNotFound
	}
	return &group.ID, nil
}

func normalizeEmail(value string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(value))
	if email == "" {
		return "", domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
