package pricing

import (
	"github.com/smallbiznis/pricewise/internal/pricing/repository"
	"github.com/smallbiznis/pricewise/internal/pricing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(repository.NewStore),
	fx.Provide(service.New),
)
