package customer

import (
	"github.com/smallbiznis/pricewise/internal/customer/domain"
	"github.com/smallbiznis/pricewise/internal/customer/repository"
	"github.com/smallbiznis/pricewise/internal/customer/service"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(svc pricelistdomain.Service) domain.PriceListLookup { return svc }),
)
