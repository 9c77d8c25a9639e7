package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/patungan/internal/balance"
	"github.com/smallbiznis/patungan/internal/charge"
	"github.com/smallbiznis/patungan/internal/clock"
	"github.com/smallbiznis/patungan/internal/config"
	"github.com/smallbiznis/patungan/internal/lock"
	"github.com/smallbiznis/patungan/internal/logger"
	"github.com/smallbiznis/patungan/internal/migration"
	"github.com/smallbiznis/patungan/internal/observability"
	"github.com/smallbiznis/patungan/internal/payment"
	"github.com/smallbiznis/patungan/internal/scheduler"
	"github.com/smallbiznis/patungan/internal/server"
	"github.com/smallbiznis/patungan/internal/subscription"
	"github.com/smallbiznis/patungan/internal/user"
	"github.com/smallbiznis/patungan/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,
		migration.Module,

		// Functional domains
		user.Module,
		subscription.Module,
		charge.Module,
		payment.Module,
		balance.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	nodeID := int64(1)
	if raw := os.Getenv("SNOWFLAKE_NODE_ID"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		nodeID = parsed
	}
	return snowflake.NewNode(nodeID)
}
