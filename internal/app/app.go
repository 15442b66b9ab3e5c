package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/data/db"
	apphttp "github.com/yungbote/sololev-backend/internal/http"
	"github.com/yungbote/sololev-backend/internal/http/handlers"
	"github.com/yungbote/sololev-backend/internal/observability"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/realtime"
	"github.com/yungbote/sololev-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Server   *apphttp.Server

	bus          bus.Bus
	otelShutdown func(context.Context) error
}

// New connects to the database, migrates it and wires the whole API.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, cfg.otelConfig(handlers.APIVersion))

	theDB, err := OpenDB(cfg, log)
	if err != nil {
		return nil, err
	}

	hub := realtime.NewSSEHub(log)
	emitter, sseBus, err := wireRealtime(ctx, log, cfg, hub)
	if err != nil {
		closeDB(theDB)
		return nil, err
	}

	bucket, err := resolveBucket(ctx, log, cfg)
	if err != nil {
		log.Error("Avatar storage unavailable", "error_code", storageProviderBootstrapErrorCode(err))
		closeDB(theDB)
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, emitter, bucket)
	if err != nil {
		closeDB(theDB)
		return nil, err
	}

	handlerset := wireHandlers(log, cfg, serviceset, hub)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, handlerset, middleware)
	server.OnShutdown(hub.CloseAll)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		SSEHub:       hub,
		Server:       server,
		bus:          sseBus,
		otelShutdown: otelShutdown,
	}, nil
}

// OpenDB connects and migrates.
func OpenDB(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	theDB, err := db.Open(cfg.dbConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		closeDB(theDB)
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	return theDB, nil
}

// Run serves HTTP and the background loops until ctx is cancelled or one of
// them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	if a.bus != nil {
		if err := a.bus.StartForwarder(gctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start SSE forwarder: %w", err)
		}
	}

	g.Go(func() error {
		a.Log.Info("HTTP server listening", "port", a.Cfg.Server.Port)
		return a.Server.Run(gctx)
	})
	g.Go(func() error {
		a.purgeLoop(gctx)
		return nil
	})

	return g.Wait()
}

func (a *App) purgeLoop(ctx context.Context) {
	interval := a.Cfg.Auth.PurgeInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Services.Auth.PurgeExpired(ctx); err != nil {
				a.Log.Warn("Session purge failed", "error", err)
			}
		}
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.Log.Warn("Redis bus close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	closeDB(a.DB)
	a.Log.Sync()
}

func closeDB(conn *gorm.DB) {
	if conn == nil {
		return
	}
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
