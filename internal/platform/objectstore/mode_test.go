package objectstore

import (
	"errors"
	"testing"
)

func TestResolveConfigFromEnvDefaultGCS(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.Mode != ModeGCS {
		t.Fatalf("mode: want=%q got=%q", ModeGCS, cfg.Mode)
	}
	if got := cfg.ModeSource(); got != "explicit_or_default" {
		t.Fatalf("ModeSource: want=%q got=%q", "explicit_or_default", got)
	}
}

func TestResolveConfigFromEnvCompatibilityFallback(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.Mode != ModeGCSEmulator {
		t.Fatalf("mode: want=%q got=%q", ModeGCSEmulator, cfg.Mode)
	}
	if !cfg.CompatibilityFallback {
		t.Fatalf("compatibility fallback: want=true got=false")
	}
}

func TestResolveConfigFromEnvExplicitModes(t *testing.T) {
	for _, mode := range []Mode{ModeGCS, ModeS3, ModeMemory} {
		t.Run(string(mode), func(t *testing.T) {
			t.Setenv("OBJECT_STORAGE_MODE", string(mode))
			t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")
			cfg, err := ResolveConfigFromEnv()
			if err != nil {
				t.Fatalf("ResolveConfigFromEnv: %v", err)
			}
			if cfg.Mode != mode {
				t.Fatalf("mode: want=%q got=%q", mode, cfg.Mode)
			}
		})
	}
}

func TestResolveConfigFromEnvErrors(t *testing.T) {
	cases := []struct {
		name string
		mode string
		host string
		code ConfigErrorCode
	}{
		{name: "invalid mode", mode: "local", code: ConfigErrorInvalidMode},
		{name: "missing emulator host", mode: "gcs_emulator", code: ConfigErrorMissingEmulatorHost},
		{name: "relative emulator host", mode: "gcs_emulator", host: "fake-gcs:4443", code: ConfigErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.host)
			_, err := ResolveConfigFromEnv()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error type: want *ConfigError got=%T (%v)", err, err)
			}
			if cfgErr.Code != tc.code {
				t.Fatalf("code: want=%q got=%q", tc.code, cfgErr.Code)
			}
		})
	}
}

func TestResolvePublicBaseURL(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")
	base, source, err := ResolvePublicBaseURL(Config{Mode: ModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443/"})
	if err != nil {
		t.Fatalf("ResolvePublicBaseURL: %v", err)
	}
	if base != "http://fake-gcs:4443" || source != "storage_emulator_host" {
		t.Fatalf("emulator fallback: got base=%q source=%q", base, source)
	}

	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "http://localhost:4443/")
	base, source, err = ResolvePublicBaseURL(Config{Mode: ModeGCS})
	if err != nil {
		t.Fatalf("ResolvePublicBaseURL: %v", err)
	}
	if base != "http://localhost:4443" || source != "object_storage_public_base_url" {
		t.Fatalf("override: got base=%q source=%q", base, source)
	}

	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "localhost:4443")
	if _, _, err := ResolvePublicBaseURL(Config{Mode: ModeGCS}); err == nil {
		t.Fatalf("ResolvePublicBaseURL: expected error for relative URL")
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"videos/a.MP4":      "video/mp4",
		"videos/a.mov":      "video/quicktime",
		"annotations/a.txt": "text/plain; charset=utf-8",
		"videos/a.bin":      "",
		"videos/a.webm?x=1": "video/webm",
	}
	for key, want := range cases {
		if got := ContentTypeForKey(key); got != want {
			t.Fatalf("ContentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}
