package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/briarworks/briarkeep/internal/config"
	"github.com/briarworks/briarkeep/internal/migration"
	"github.com/briarworks/briarkeep/internal/observability"
	"github.com/briarworks/briarkeep/internal/server"
	"github.com/briarworks/briarkeep/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
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
