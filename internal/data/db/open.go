package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/analytics-database/internal/config"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// Open connects to the configured engine and applies pool sizing.
func Open(cfg config.Database, baseLog *logger.Logger) (*gorm.DB, error) {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	dbLog := baseLog.With("service", "Database")

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   cfg.Autocommit,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	if cfg.Driver == config.DriverSQLite && cfg.DSN == config.MemoryDSN {
		// every connection to a shared in-memory database must stay open
		// or the schema disappears with the last one
		sqlDB.SetMaxIdleConns(poolSize + cfg.MaxOverflow)
	} else {
		sqlDB.SetMaxIdleConns(poolSize)
	}
	sqlDB.SetMaxOpenConns(poolSize + cfg.MaxOverflow)
	if cfg.PoolRecycle > 0 {
		sqlDB.SetConnMaxLifetime(cfg.PoolRecycle)
	}

	if cfg.TwoPhase {
		dbLog.Info("two-phase commit requested; prepared transactions are left to the caller's transaction manager")
	}
	dbLog.Debug("database opened", "driver", cfg.Driver, "pool_size", poolSize, "max_overflow", cfg.MaxOverflow)
	return db, nil
}

func gormLogLevel(level string) gormLogger.LogLevel {
	switch level {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}
