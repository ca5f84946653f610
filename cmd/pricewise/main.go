package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricewise/internal/cache"
	"github.com/smallbiznis/pricewise/internal/catalog"
	"github.com/smallbiznis/pricewise/internal/clock"
	"github.com/smallbiznis/pricewise/internal/config"
	"github.com/smallbiznis/pricewise/internal/customer"
	"github.com/smallbiznis/pricewise/internal/discountrule"
	"github.com/smallbiznis/pricewise/internal/migration"
	"github.com/smallbiznis/pricewise/internal/observability"
	"github.com/smallbiznis/pricewise/internal/pricelist"
	"github.com/smallbiznis/pricewise/internal/pricing"
	"github.com/smallbiznis/pricewise/internal/ratelimit"
	"github.com/smallbiznis/pricewise/internal/server"
	"github.com/smallbiznis/pricewise/pkg/db"
	"github.com/smallbiznis/pricewise/pkg/redisclient"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		redisclient.Module,
		clock.Module,
		cache.Module,
		migration.Module,

		// Master data
		catalog.Module,
		customer.Module,
		pricelist.Module,
		discountrule.Module,

		// Pricing
		pricing.Module,
		ratelimit.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
