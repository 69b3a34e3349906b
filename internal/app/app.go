package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/data/db"
	pcmmhttp "github.com/yungbote/pcmm-backend/internal/http"
	"github.com/yungbote/pcmm-backend/internal/jobs"
	"github.com/yungbote/pcmm-backend/internal/observability"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
	"github.com/yungbote/pcmm-backend/internal/platform/nodecache"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Cache    nodecache.Cache
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New opens the configured database and wires the whole application.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	theDB, err := OpenDB(log, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := Migrate(theDB); err != nil {
			return nil, err
		}
	}
	a, err := NewWithDB(log, theDB, cfg)
	if err != nil {
		return nil, err
	}
	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)
	return a, nil
}

// NewWithDB wires repos, services and the router onto an already migrated database.
func NewWithDB(log *logger.Logger, theDB *gorm.DB, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cache, err := openCache(log, cfg.Cache)
	if err != nil {
		return nil, err
	}
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.Init(log)
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, cache)
	handlerset := wireHandlers(log, theDB, cfg, serviceset)
	middleware := wireMiddleware(log, cfg)
	router := wireRouter(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		Cache:    cache,
		Metrics:  metrics,
	}, nil
}

func OpenDB(log *logger.Logger, cfg DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		pg, err := db.NewPostgresService(cfg.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return pg.DB(), nil
	case DriverSQLite, "":
		lite, err := db.NewSQLiteService(cfg.Path, log)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		return lite.DB(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func Migrate(theDB *gorm.DB) error {
	if err := db.AutoMigrateAll(theDB); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsureIndexes(theDB); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}

func openCache(log *logger.Logger, cfg CacheConfig) (nodecache.Cache, error) {
	switch cfg.Driver {
	case CacheRedis:
		c, err := nodecache.NewRedis(log, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("init redis node cache: %w", err)
		}
		return c, nil
	case CacheNone:
		return nodecache.NewNoop(), nil
	default:
		return nodecache.NewMemory(), nil
	}
}

// Start launches background work: metrics export and, when configured,
// repair of tag runs a previous process left behind.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB, a.Cfg.Metrics.ScrapeInterval)
		if a.Cfg.Cache.Driver == CacheRedis {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.Cache.Redis.Addr, a.Cfg.Metrics.ScrapeInterval)
		}
	}
	worker := jobs.NewRepairWorker(a.Log, a.Services.Tag, a.Cfg.Tag.RepairInterval, a.Cfg.Tag.RepairOlderThan)
	if a.Cfg.Tag.RepairOnStart {
		_, _ = worker.Tick(ctx)
	}
	worker.Start(ctx)
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	srv := &pcmmhttp.Server{Engine: a.Router}
	a.Log.Info("http listening", "addr", a.Cfg.HTTP.Addr)
	return srv.Run(ctx, a.Cfg.HTTP.Addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
