package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/config"
	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/data/db"
	"github.com/yungbote/analytics-database/internal/observability"
	"github.com/yungbote/analytics-database/internal/platform/logger"
	"github.com/yungbote/analytics-database/internal/services"
)

type Options struct {
	ConfigFile string
	EnvFile    string
	// Migrate creates or updates the schema before services are wired.
	Migrate bool
	// Override lets flags win over file and environment settings.
	Override func(*config.Config)
}

type App struct {
	Log       *logger.Logger
	DB        *gorm.DB
	Cfg       *config.Config
	Metrics   *observability.Metrics
	Analytics *services.Analytics

	cancel       context.CancelFunc
	shutdownOTel func(context.Context) error
}

func New(opts Options) (*App, error) {
	cfg, err := config.Load(config.Options{File: opts.ConfigFile, EnvFile: opts.EnvFile})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Override != nil {
		opts.Override(cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	log, err := logger.NewWithOptions(logger.Options{
		Mode:     cfg.LogMode,
		Redact:   cfg.LogRedaction,
		HashSalt: cfg.LogHashSalt,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdown, err := observability.InitOTel(context.Background(), log, cfg.Tracing)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	theDB, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if opts.Migrate || cfg.TestMode {
		if err := db.AutoMigrateAll(theDB); err != nil {
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	var metrics *observability.Metrics
	var hooks aggregates.Hooks
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
		hooks = aggregates.NewObservabilityHooks(metrics)
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Metrics:      metrics,
		Analytics:    services.New(services.Deps{DB: theDB, Log: log, Hooks: hooks}),
		shutdownOTel: shutdown,
	}, nil
}

// Start launches the metrics endpoint and pool collector when enabled.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
		a.Metrics.StartPoolCollector(ctx, a.Log, a.DB, 15*time.Second)
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.shutdownOTel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdownOTel(ctx); err != nil && a.Log != nil {
			a.Log.Warn("tracing shutdown failed", "error", err)
		}
		cancel()
		a.shutdownOTel = nil
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		a.DB = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
