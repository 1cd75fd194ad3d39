package migration

import (
	accountdomain "github.com/briarworks/briarkeep/internal/account/domain"
	apikeydomain "github.com/briarworks/briarkeep/internal/apikey/domain"
	collectiondomain "github.com/briarworks/briarkeep/internal/collection/domain"
	"github.com/briarworks/briarkeep/internal/config"
	"github.com/briarworks/briarkeep/internal/seed"
	subscriptiondomain "github.com/briarworks/briarkeep/internal/subscription/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-postgres installs (local sqlite) fall back to AutoMigrate.
			if err := conn.AutoMigrate(
				&accountdomain.Account{},
				&subscriptiondomain.SubscriptionRecord{},
				&apikeydomain.APIKey{},
				&collectiondomain.Pipe{},
				&collectiondomain.Blend{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureBootstrap(conn, cfg)
	}),
)
