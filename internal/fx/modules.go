package fx

import (
	"context"

	"payment-router/internal/config"
	migrations "payment-router/internal/database"
	"payment-router/pkg/cache"
	"payment-router/pkg/database"
	"payment-router/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigModule provides application configuration
var ConfigModule = fx.Module("config",
	fx.Provide(config.Load),
	fx.Provide(func(cfg *config.Config) *config.ConnectorConfig { return &cfg.Connector }),
	fx.Provide(func(cfg *config.Config) *config.GsmConfig { return &cfg.Gsm }),
)

// LoggerModule provides structured logging
var LoggerModule = fx.Module("logger",
	fx.Provide(
		func(cfg *config.Config) (*logger.Logger, error) {
			if cfg.Server.Environment == "development" {
				return logger.NewDevelopment()
			}
			return logger.New(cfg.Server.LogLevel)
		},
	),
	fx.Invoke(func(logger *logger.Logger) {
		zap.ReplaceGlobals(logger.SugaredLogger.Desugar())
	}),
)

// DatabaseModule provides the database connection and migrations
var DatabaseModule = fx.Module("database",
	fx.Provide(
		func(cfg *config.Config, logger *logger.Logger) (*database.DB, error) {
			logger.Info("Connecting to database", "host", cfg.Database.Host, "db", cfg.Database.DBName)
			db, err := database.New(&cfg.Database)
			if err != nil {
				logger.Error("Failed to connect to database", "error", err)
				return nil, err
			}
			return db, nil
		},
	),
	fx.Provide(func(db *database.DB) *gorm.DB {
		return db.DB
	}),
	fx.Provide(migrations.NewMigrator),
	fx.Invoke(func(lc fx.Lifecycle, db *database.DB, migrator *migrations.Migrator, logger *logger.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return migrator.RunMigrations()
			},
			OnStop: func(ctx context.Context) error {
				logger.Info("Closing database connection")
				return db.Close()
			},
		})
	}),
)

// CacheModule provides the redis cache used by the gsm store
var CacheModule = fx.Module("cache",
	fx.Provide(
		func(cfg *config.Config, logger *logger.Logger) (*cache.Cache, error) {
			logger.Info("Connecting to redis", "addr", cfg.Redis.Addr())
			c, err := cache.New(&cfg.Redis)
			if err != nil {
				logger.Error("Failed to connect to redis", "error", err)
				return nil, err
			}
			return c, nil
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, c *cache.Cache) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return c.Close()
			},
		})
	}),
)

// CoreModules combines all core application modules
var CoreModules = fx.Options(
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	CacheModule,
)

// ApplicationModules combines all application-specific modules
var ApplicationModules = fx.Options(
	RepositoriesModule,
	ServicesModule,
	HandlersModule,
	ServerModule,
)
