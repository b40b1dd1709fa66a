package app

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/oceanml-backend/internal/handoff"
	"github.com/yungbote/oceanml-backend/internal/http/middleware"
	"github.com/yungbote/oceanml-backend/internal/platform/envutil"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

type Config struct {
	Environment string
	Version     string
	Host        string
	Port        int

	JWTSecretKey    string
	HandoffTokenTTL time.Duration
	HandoffScheme   string

	CORSOrigins    []string
	MaxUploadBytes int64

	LockTimeout               time.Duration
	LockMaxTimeout            time.Duration
	RequireLeaseHolder        bool
	VideoMutexTTL             time.Duration
	RedisMetricsInterval      time.Duration
	ObjectStorageMode         string
	StorageEmulatorHost       string
	StorageModeCompatFallback bool
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("APP_VERSION", "0.1.0"),
		Host:        envutil.String("HOST", "0.0.0.0"),
		Port:        envutil.Int("PORT", 8000),

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", ""),
		HandoffTokenTTL: envutil.Minutes("HANDOFF_TOKEN_TTL_MINUTES", 10*time.Minute),
		HandoffScheme:   envutil.String("HANDOFF_SCHEME", handoff.DefaultScheme),

		CORSOrigins:    envutil.CSV("CORS_ORIGINS", middleware.DefaultCORSOrigins),
		MaxUploadBytes: int64(envutil.Int("MAX_UPLOAD_SIZE_MB", 100)) << 20,

		LockTimeout:          envutil.Minutes("LOCK_TIMEOUT_MINUTES", 60*time.Minute),
		LockMaxTimeout:       envutil.Minutes("LOCK_MAX_TIMEOUT_MINUTES", 24*time.Hour),
		RequireLeaseHolder:   envutil.Bool("ANNOTATION_REQUIRE_LEASE_HOLDER", false),
		VideoMutexTTL:        time.Duration(envutil.Int("VIDEO_MUTEX_TTL_SECONDS", 120)) * time.Second,
		RedisMetricsInterval: 15 * time.Second,

		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
	}

	rawMode := strings.ToLower(envutil.String("OBJECT_STORAGE_MODE", ""))
	switch {
	case rawMode != "":
		cfg.ObjectStorageMode = rawMode
	case cfg.StorageEmulatorHost != "":
		cfg.ObjectStorageMode = "gcs_emulator"
		cfg.StorageModeCompatFallback = true
	default:
		cfg.ObjectStorageMode = "gcs"
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 100 << 20
	}
	if cfg.LockMaxTimeout <= 0 {
		cfg.LockMaxTimeout = 24 * time.Hour
	}
	if cfg.LockTimeout > cfg.LockMaxTimeout {
		log.Warn("LOCK_TIMEOUT_MINUTES exceeds LOCK_MAX_TIMEOUT_MINUTES; clamping",
			"lock_timeout", cfg.LockTimeout, "lock_max_timeout", cfg.LockMaxTimeout)
		cfg.LockTimeout = cfg.LockMaxTimeout
	}
	if cfg.VideoMutexTTL <= 0 {
		cfg.VideoMutexTTL = 120 * time.Second
	}
	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY is not set; every protected request will be rejected")
	}
	return cfg
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
