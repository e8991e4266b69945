package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ratewise/internal/clock"
	"github.com/smallbiznis/ratewise/internal/config"
	"github.com/smallbiznis/ratewise/internal/migration"
	"github.com/smallbiznis/ratewise/internal/observability"
	"github.com/smallbiznis/ratewise/internal/server"
	"github.com/smallbiznis/ratewise/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP surface (pulls in all domain modules)
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
