package database

import (
	"fmt"
	"log/slog"

	"github.com/glebarez/sqlite"
	"github.com/oumpowerman/thaoshare/config"
	"github.com/oumpowerman/thaoshare/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

type Options struct {
	Tracing bool
	Logger  *slog.Logger
}

// Connect opens the configured database and, with DB_AUTO_MIGRATE set,
// brings the schema up to date.
func Connect(cfg config.DBConfig, opts Options) (*gorm.DB, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if opts.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("enable gorm tracing: %w", err)
		}
	}
	logger.Info("connected to database", "driver", cfg.Driver)

	if cfg.AutoMigrate {
		logger.Info("starting auto-migration")
		if err := Migrate(db); err != nil {
			return nil, err
		}
		logger.Info("auto migration completed")
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.MigrateModels...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
