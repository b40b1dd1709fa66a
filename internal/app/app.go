package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/oceanml-backend/internal/data/db"
	"github.com/yungbote/oceanml-backend/internal/domain"
	apphttp "github.com/yungbote/oceanml-backend/internal/http"
	"github.com/yungbote/oceanml-backend/internal/observability"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	dbService, err := db.Open(log, db.ConfigFromEnv())
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := dbService.DB()
	metrics.RegisterDBStats(log, theDB, "oceanml")

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients)
	handlerset := wireHandlers(log, cfg, serviceset)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background collectors. It is a no-op when called twice.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis, a.Cfg.RedisMetricsInterval)
	}
	if a.Clients.ActivityBus != nil {
		busLog := a.Log.With("component", "ActivityBus")
		err := a.Clients.ActivityBus.Subscribe(ctx, func(entry *domain.ActivityLog) {
			busLog.Debug("activity observed",
				"action", entry.ActionType,
				"resource_id", entry.ResourceID,
				"actor", entry.Actor,
			)
		})
		if err != nil {
			a.Log.Warn("activity bus subscribe failed", "error", err)
		}
	}
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := a.Cfg.Addr()
	a.Log.Info("HTTP server listening", "addr", addr, "environment", a.Cfg.Environment)
	srv := &apphttp.Server{Engine: a.Router}
	return srv.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
