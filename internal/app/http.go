package app

import (
	"net"

	apphttp "github.com/yungbote/sololev-backend/internal/http"
	httpH "github.com/yungbote/sololev-backend/internal/http/handlers"
	httpMW "github.com/yungbote/sololev-backend/internal/http/middleware"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/platform/storage"
	"github.com/yungbote/sololev-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	Task     *httpH.TaskHandler
	User     *httpH.UserHandler
	Realtime *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Auth:     httpH.NewAuthHandler(log, services.Auth, cfg.Auth.AppRedirectURL),
		Task:     httpH.NewTaskHandler(log, services.Task),
		User:     httpH.NewUserHandler(log, services.User, services.Progress),
		Realtime: httpH.NewRealtimeHandler(log, hub),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *apphttp.Server {
	var mediaDir string
	if mode, err := storage.ParseMode(cfg.Storage.Mode); err == nil && mode == storage.ModeLocal {
		mediaDir = cfg.Storage.LocalDir
	}
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = ServiceName
	}
	return apphttp.NewServer(net.JoinHostPort("", cfg.Server.Port), apphttp.RouterConfig{
		Log:             log,
		ServiceName:     serviceName,
		CORSOrigins:     cfg.Server.CORSAllowOrigins,
		MediaDir:        mediaDir,
		AuthHandler:     handlers.Auth,
		AuthMiddleware:  middleware.Auth,
		TaskHandler:     handlers.Task,
		UserHandler:     handlers.User,
		RealtimeHandler: handlers.Realtime,
		HealthHandler:   handlers.Health,
	})
}
