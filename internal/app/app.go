package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jCool10/LearnSmart-sub001/internal/clients/redis"
	"github.com/jCool10/LearnSmart-sub001/internal/data/db"
	"github.com/jCool10/LearnSmart-sub001/internal/http"
	"github.com/jCool10/LearnSmart-sub001/internal/observability"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *db.Service
	Cfg      Config
	Repos    Repos
	Services Services
	Server   *http.Server
	Metrics  *observability.Metrics

	cache         redis.Cache
	shutdownOTel  func(context.Context) error
	cancelMetrics context.CancelFunc
}

type Options struct {
	// Migrate runs AutoMigrate before wiring. The API server sets it; the
	// ops CLI runs migrations as its own command.
	Migrate bool
}

func New(ctx context.Context, opts Options) (*App, error) {
	LoadDotEnv(nil)
	cfg := LoadConfig(nil)
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg = LoadConfig(log)
	if cfg.LogMode == "production" || cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{Log: log, Cfg: cfg}
	a.shutdownOTel = observability.InitOTel(ctx, log, cfg.Otel)

	a.DB, err = db.NewService(log, cfg.DB)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if opts.Migrate {
		if err := a.DB.AutoMigrateAll(); err != nil {
			a.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	if cfg.MetricsEnabled {
		a.Metrics = observability.New()
		a.Metrics.RegisterDBStats(log, a.DB.DB(), cfg.DB.Name)
	}

	var cache services.JSONCache
	if cfg.RedisAddr != "" {
		c, err := redis.NewCache(log, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			// Stats fall back to the database.
			log.Warn("Redis unavailable; stats cache disabled", "error", err)
		} else {
			a.cache = c
			cache = c
			metricsCtx, cancel := context.WithCancel(context.Background())
			a.cancelMetrics = cancel
			a.Metrics.StartRedisCollector(metricsCtx, log, c, 15*time.Second)
		}
	}

	a.Repos = wireRepos(a.DB.DB(), log)
	a.Services = wireServices(a.DB.DB(), log, cfg, a.Repos, cache, a.Metrics)
	a.Server = wireServer(a.DB.DB(), log, cfg, a.Services, a.Metrics)
	return a, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancelMetrics != nil {
		a.cancelMetrics()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.Log.Warn("redis close failed", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.shutdownOTel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdownOTel(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
