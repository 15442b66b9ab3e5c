package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/sololev-backend/internal/http/handlers"
	httpMW "github.com/yungbote/sololev-backend/internal/http/middleware"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/platform/storage"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	// MediaDir is served under /media when avatars are stored on local disk.
	MediaDir string

	AuthHandler     *httpH.AuthHandler
	AuthMiddleware  *httpMW.AuthMiddleware
	TaskHandler     *httpH.TaskHandler
	UserHandler     *httpH.UserHandler
	RealtimeHandler *httpH.RealtimeHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(httpMW.Recovery(cfg.Log))
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Welcome)
		r.GET("/health", cfg.HealthHandler.Health)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	if cfg.MediaDir != "" {
		r.Static(storage.MediaRoute, cfg.MediaDir)
	}

	api := r.Group("/api")

	// Auth (public)
	if cfg.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.GET("/google", cfg.AuthHandler.GoogleStart)
		auth.GET("/callback/google", cfg.AuthHandler.GoogleCallback)
		auth.POST("/google/token", cfg.AuthHandler.GoogleIDToken)
		auth.GET("/verify", cfg.AuthHandler.Verify)
		auth.POST("/logout", cfg.AuthHandler.Logout)
		auth.GET("/failure", cfg.AuthHandler.Failure)
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	if cfg.TaskHandler != nil {
		protected.GET("/tasks", cfg.TaskHandler.List)
		protected.GET("/tasks/today", cfg.TaskHandler.Today)
		protected.POST("/tasks", cfg.TaskHandler.Create)
		protected.PATCH("/tasks/:taskId", cfg.TaskHandler.Update)
		protected.DELETE("/tasks/:taskId", cfg.TaskHandler.Delete)
	}

	if cfg.UserHandler != nil {
		protected.GET("/users/me", cfg.UserHandler.GetMe)
		protected.PATCH("/users/me", cfg.UserHandler.UpdateMe)
		protected.GET("/users/me/progress", cfg.UserHandler.GetProgress)
		protected.POST("/users/me/complete-day", cfg.UserHandler.CompleteDay)
		protected.GET("/users/me/history", cfg.UserHandler.History)
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
	}

	return r
}
