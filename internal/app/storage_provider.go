package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/oceanml-backend/internal/observability"
	"github.com/yungbote/oceanml-backend/internal/platform/gcp"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/platform/objectstore"
	"github.com/yungbote/oceanml-backend/internal/platform/s3"
)

var (
	newGCSStore = func(log *logger.Logger, cfg objectstore.Config, buckets objectstore.Buckets) (objectstore.Store, error) {
		return gcp.NewBucketStore(log, cfg, buckets)
	}
	newS3Store = func(ctx context.Context, log *logger.Logger, buckets objectstore.Buckets) (objectstore.Store, error) {
		return s3.New(ctx, log, s3.ConfigFromEnv(), buckets)
	}
)

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func resolveObjectStore(ctx context.Context, log *logger.Logger, cfg Config, buckets objectstore.Buckets) (objectstore.Store, error) {
	storageCfg := objectstore.Config{
		Mode:                  objectstore.Mode(strings.TrimSpace(cfg.ObjectStorageMode)),
		EmulatorHost:          strings.TrimSpace(cfg.StorageEmulatorHost),
		CompatibilityFallback: cfg.StorageModeCompatFallback,
	}
	modeSource := storageCfg.ModeSource()
	metrics := observability.Current()

	fail := func(err error) (objectstore.Store, error) {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		code := storageProviderBootstrapErrorCode(classified)
		metrics.IncObjectStorageBootstrap(string(storageCfg.Mode), "error", string(code))
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"mode_source", modeSource,
			"compatibility_fallback", storageCfg.CompatibilityFallback,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", code,
			"error", classified,
		)
		return nil, classified
	}

	if err := objectstore.ValidateConfig(storageCfg); err != nil {
		return fail(err)
	}

	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", modeSource,
		"compatibility_fallback", storageCfg.CompatibilityFallback,
		"emulator_host", storageCfg.EmulatorHost,
	)

	var (
		store objectstore.Store
		err   error
	)
	switch storageCfg.Mode {
	case objectstore.ModeGCS, objectstore.ModeGCSEmulator:
		store, err = newGCSStore(log, storageCfg, buckets)
	case objectstore.ModeS3:
		store, err = newS3Store(ctx, log, buckets)
	case objectstore.ModeMemory:
		base, _, baseErr := objectstore.ResolvePublicBaseURL(storageCfg)
		if baseErr != nil {
			return fail(baseErr)
		}
		log.Warn("Using in-memory object storage; blobs are lost on restart")
		store = objectstore.NewMemory(base)
	}
	if err != nil {
		return fail(err)
	}
	metrics.IncObjectStorageBootstrap(string(storageCfg.Mode), "success", "none")
	return store, nil
}

func classifyStorageProviderBootstrapError(storageCfg objectstore.Config, err error) error {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		return err
	}
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *objectstore.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case objectstore.ConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case objectstore.ConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case objectstore.ConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
