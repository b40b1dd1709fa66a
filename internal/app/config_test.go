package app

import (
	"testing"
	"time"

	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"OBJECT_STORAGE_MODE", "STORAGE_EMULATOR_HOST", "CORS_ORIGINS", "LOCK_TIMEOUT_MINUTES", "PORT"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(logger.Nop())

	if cfg.LockTimeout != time.Hour || cfg.LockMaxTimeout != 24*time.Hour {
		t.Fatalf("lock timeouts: got=%v/%v", cfg.LockTimeout, cfg.LockMaxTimeout)
	}
	if cfg.MaxUploadBytes != 100<<20 {
		t.Fatalf("MaxUploadBytes: got=%d", cfg.MaxUploadBytes)
	}
	if cfg.ObjectStorageMode != "gcs" || cfg.StorageModeCompatFallback {
		t.Fatalf("storage mode: got=%q fallback=%v", cfg.ObjectStorageMode, cfg.StorageModeCompatFallback)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("CORSOrigins: got=%v", cfg.CORSOrigins)
	}
	if cfg.Addr() != "0.0.0.0:8000" {
		t.Fatalf("Addr: got=%q", cfg.Addr())
	}
	if cfg.HandoffScheme != "oceanml" || cfg.HandoffTokenTTL != 10*time.Minute {
		t.Fatalf("handoff: scheme=%q ttl=%v", cfg.HandoffScheme, cfg.HandoffTokenTTL)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("LOCK_TIMEOUT_MINUTES", "90")
	t.Setenv("LOCK_MAX_TIMEOUT_MINUTES", "30")
	t.Setenv("ANNOTATION_REQUIRE_LEASE_HOLDER", "true")
	t.Setenv("MAX_UPLOAD_SIZE_MB", "5")

	cfg := LoadConfig(logger.Nop())
	if cfg.ObjectStorageMode != "gcs_emulator" || !cfg.StorageModeCompatFallback {
		t.Fatalf("emulator fallback: mode=%q fallback=%v", cfg.ObjectStorageMode, cfg.StorageModeCompatFallback)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.test" {
		t.Fatalf("CORSOrigins: got=%v", cfg.CORSOrigins)
	}
	if cfg.LockTimeout != 30*time.Minute {
		t.Fatalf("LockTimeout clamp: want=30m got=%v", cfg.LockTimeout)
	}
	if !cfg.RequireLeaseHolder {
		t.Fatalf("RequireLeaseHolder: want=true")
	}
	if cfg.MaxUploadBytes != 5<<20 {
		t.Fatalf("MaxUploadBytes: got=%d", cfg.MaxUploadBytes)
	}
}
