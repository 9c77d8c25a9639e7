package migration

import (
	"github.com/smallbiznis/patungan/internal/config"
	"github.com/smallbiznis/patungan/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBType != "postgres" {
			log.Warn("schema migrations only target postgres; skipping",
				zap.String("db_type", cfg.DBType))
		} else {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if err := seed.EnsureAdminUser(conn); err != nil {
			return err
		}
		if cfg.SeedDemoData {
			return seed.EnsureDemoSubscription(conn)
		}
		return nil
	}),
)
