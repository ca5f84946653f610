package discountrule

import (
	"github.com/smallbiznis/pricewise/internal/discountrule/repository"
	"github.com/smallbiznis/pricewise/internal/discountrule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("discountrule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
