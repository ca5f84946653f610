package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/pricewise/internal/clock"
	"github.com/smallbiznis/pricewise/internal/customer/domain"
	"github.com/smallbiznis/pricewise/internal/customer/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type priceListLookupStub struct {
	known map[snowflake.ID]bool
}

func (s *priceListLookupStub) PriceListExists(_ context.Context, id snowflake.ID) (bool, error) {
	return s.known[id], nil
}

func setupCustomerService(t *testing.T, lookup domain.PriceListLookup) (domain.Service, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}, &domain.CustomerGroup{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Repo:       repository.Provide(),
		PriceLists: lookup,
	})
	return svc, node
}

func TestCreateCustomerWithGroupAndPriceList(t *testing.T) {
	node, _ := snowflake.NewNode(9)
	listID := node.Generate()
	svc, _ := setupCustomerService(t, &priceListLookupStub{known: map[snowflake.ID]bool{listID: true}})
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, domain.CreateGroupRequest{Name: "Wholesale Partners"})
	require.NoError(t, err)
	assert.Equal(t, "wholesale-partners", group.Code)

	customer, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:                "Acme",
		Email:               " Buyer@Acme.io ",
		AssignedPriceListID: listID.String(),
		CustomerGroupID:     group.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "buyer@acme.io", customer.Email)
	assert.True(t, customer.IsActive)

	loaded, err := svc.GetByID(ctx, customer.ID.String())
	require.NoError(t, err)
	require.NotNil(t, loaded.AssignedPriceListID)
	assert.Equal(t, listID, *loaded.AssignedPriceListID)
	require.NotNil(t, loaded.CustomerGroupID)
	assert.Equal(t, group.ID, *loaded.CustomerGroupID)
}

func TestCreateCustomerRejectsUnknownReferences(t *testing.T) {
	svc, _ := setupCustomerService(t, &priceListLookupStub{known: map[snowflake.ID]bool{}})
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Acme", Email: "a@acme.io", AssignedPriceListID: "777"})
	assert.ErrorIs(t, err, domain.ErrInvalidPriceList)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Acme", Email: "a@acme.io", CustomerGroupID: "777"})
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Acme", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "", Email: "a@acme.io"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestUpdateCustomerClearsAssignmentAndDeactivates(t *testing.T) {
	node, _ := snowflake.NewNode(9)
	listID := node.Generate()
	svc, _ := setupCustomerService(t, &priceListLookupStub{known: map[snowflake.ID]bool{listID: true}})
	ctx := context.Background()

	customer, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Acme", Email: "a@acme.io", AssignedPriceListID: listID.String()})
	require.NoError(t, err)

	empty := ""
	inactive := false
	updated, err := svc.Update(ctx, domain.UpdateCustomerRequest{ID: customer.ID.String(), AssignedPriceListID: &empty, IsActive: &inactive})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedPriceListID)
	assert.False(t, updated.IsActive)

	loaded, err := svc.GetByID(ctx, customer.ID.String())
	require.NoError(t, err)
	assert.Nil(t, loaded.AssignedPriceListID)
	assert.False(t, loaded.IsActive)

	_, err = svc.Update(ctx, domain.UpdateCustomerRequest{ID: "123"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
