package app

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/platform/storage"
	"github.com/yungbote/sololev-backend/internal/realtime"
	"github.com/yungbote/sololev-backend/internal/realtime/bus"
	"github.com/yungbote/sololev-backend/internal/services"
)

type Services struct {
	Avatar   services.AvatarService
	Auth     services.AuthService
	User     services.UserService
	Task     services.TaskService
	Progress services.ProgressService
	Notifier services.Notifier
}

// wireRealtime picks the emitter. With REDIS_ADDR set every instance
// publishes to Redis and forwards into its own hub; otherwise messages go
// straight to this process's hub.
func wireRealtime(ctx context.Context, log *logger.Logger, cfg Config, hub *realtime.SSEHub) (services.SSEEmitter, bus.Bus, error) {
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		log.Info("Realtime fan-out: in-process hub")
		return &services.HubEmitter{Hub: hub}, nil, nil
	}
	b, err := bus.NewRedisBus(ctx, log, cfg.redisConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("init redis SSE bus: %w", err)
	}
	log.Info("Realtime fan-out: redis", "channel", cfg.Redis.Channel)
	return &services.RedisEmitter{Bus: b, Log: log}, b, nil
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, emitter services.SSEEmitter, bucket storage.Bucket) (Services, error) {
	log.Info("Wiring services...")

	loc, err := cfg.Location()
	if err != nil {
		return Services{}, err
	}
	notifier := services.NewNotifier(emitter)

	avatarService, err := services.NewAvatarService(log, r.User, bucket, services.AvatarConfig{ColorsPath: cfg.Storage.ColorsPath})
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}

	var google services.GoogleOAuth
	if strings.TrimSpace(cfg.Auth.GoogleClientID) == "" {
		log.Warn("GOOGLE_CLIENT_ID not set; Google sign-in disabled")
	} else {
		google, err = services.NewGoogleOAuth(services.GoogleOAuthConfig{
			ClientID:       cfg.Auth.GoogleClientID,
			ClientSecret:   cfg.Auth.GoogleClientSecret,
			RedirectURL:    cfg.Auth.GoogleCallbackURL,
			ExtraAudiences: cfg.Auth.GoogleExtraAudiences,
		})
		if err != nil {
			return Services{}, fmt.Errorf("init google oauth: %w", err)
		}
	}

	authService := services.NewAuthService(db, log, r.User, r.UserIdentity, r.Session, r.OAuthState, google, avatarService, services.AuthConfig{
		JWTSecret:  cfg.Auth.JWTSecret,
		SessionTTL: cfg.Auth.SessionTTL,
		StateTTL:   cfg.Auth.StateTTL,
	})

	return Services{
		Avatar:   avatarService,
		Auth:     authService,
		User:     services.NewUserService(db, log, r.User, notifier),
		Task:     services.NewTaskService(db, log, r.Task, notifier, loc),
		Progress: services.NewProgressService(db, log, r.User, r.Task, r.DayCompletion, notifier, services.ProgressConfig{Location: loc, MaxRetries: cfg.Progress.MaxRetries}),
		Notifier: notifier,
	}, nil
}
