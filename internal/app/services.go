package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/services"
)

type Services struct {
	Activity    services.ActivityService
	Auth        services.AuthService
	Lock        services.LockService
	Annotations services.AnnotationService
	Videos      services.VideoService
	Handoff     services.HandoffService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")
	clock := services.SystemClock()

	activity := services.NewActivityService(log, reposet.ActivityLog, clients.activityPublisher())
	auth := services.NewAuthService(log, cfg.JWTSecretKey, clock)
	lock := services.NewLockService(log, reposet.Video, clients.Store, activity, clock, services.LockConfig{
		DefaultDuration: cfg.LockTimeout,
		MaxDuration:     cfg.LockMaxTimeout,
	})
	annotations := services.NewAnnotationService(
		db, log,
		reposet.Video, reposet.Annotation,
		clients.Store, clients.VideoLocks,
		activity, clock,
		services.AnnotationConfig{RequireLeaseHolder: cfg.RequireLeaseHolder},
	)
	videos := services.NewVideoService(
		db, log,
		reposet.Video, reposet.Annotation,
		clients.Store, clients.VideoLocks,
		activity,
		services.VideoConfig{MaxUploadBytes: cfg.MaxUploadBytes},
	)
	handoff := services.NewHandoffService(log, videos, auth, services.HandoffConfig{
		Scheme:   cfg.HandoffScheme,
		TokenTTL: cfg.HandoffTokenTTL,
	})

	return Services{
		Activity:    activity,
		Auth:        auth,
		Lock:        lock,
		Annotations: annotations,
		Videos:      videos,
		Handoff:     handoff,
	}
}
