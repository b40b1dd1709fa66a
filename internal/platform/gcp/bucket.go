package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/platform/objectstore"
)

// BucketStore is the GCS (or fake-gcs emulator) implementation of
// objectstore.Store.
type BucketStore struct {
	log           *logger.Logger
	storageClient *storage.Client
	storageMode   objectstore.Mode
	emulatorHost  string
	buckets       objectstore.Buckets
	publicBaseURL string
	httpClient    *http.Client
}

var _ objectstore.Store = (*BucketStore)(nil)

func NewBucketStore(log *logger.Logger, storageCfg objectstore.Config, buckets objectstore.Buckets) (*BucketStore, error) {
	if err := objectstore.ValidateConfig(storageCfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if storageCfg.Mode != objectstore.ModeGCS && storageCfg.Mode != objectstore.ModeGCSEmulator {
		return nil, fmt.Errorf("gcs bucket store does not serve mode %q", storageCfg.Mode)
	}
	if strings.TrimSpace(buckets.Videos.Name) == "" {
		return nil, fmt.Errorf("missing env var VIDEOS_BUCKET_NAME")
	}
	if strings.TrimSpace(buckets.Annotations.Name) == "" {
		return nil, fmt.Errorf("missing env var ANNOTATIONS_BUCKET_NAME")
	}
	serviceLog := log.With("service", "BucketStore")

	publicBaseURL, publicBaseSource, err := objectstore.ResolvePublicBaseURL(storageCfg)
	if err != nil {
		return nil, err
	}

	stClient, err := newStorageClientForMode(context.Background(), storageCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"emulator_host", storageCfg.EmulatorHost,
		"public_base_source", publicBaseSource,
		"public_base_url", publicBaseURL,
		"videos_bucket", buckets.Videos.Name,
		"annotations_bucket", buckets.Annotations.Name,
	)

	return &BucketStore{
		log:           serviceLog,
		storageClient: stClient,
		storageMode:   storageCfg.Mode,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/"),
		buckets:       buckets,
		publicBaseURL: publicBaseURL,
		httpClient:    http.DefaultClient,
	}, nil
}

func newStorageClientForMode(ctx context.Context, storageCfg objectstore.Config) (*storage.Client, error) {
	switch storageCfg.Mode {
	case objectstore.ModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case objectstore.ModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &objectstore.ConfigError{
			Code: objectstore.ConfigErrorInvalidMode,
			Mode: string(storageCfg.Mode),
		}
	}
}

func (bs *BucketStore) Upload(ctx context.Context, category objectstore.Category, key string, r io.Reader) error {
	cfg, err := bs.buckets.For(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(cfg.Name).Object(key).NewWriter(ctx)
	if ct := objectstore.ContentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *BucketStore) Delete(ctx context.Context, category objectstore.Category, keys ...string) error {
	cfg, err := bs.buckets.For(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	var errs []error
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		err := bs.storageClient.Bucket(cfg.Name).Object(key).Delete(ctx)
		if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
			continue
		}
		errs = append(errs, fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, cfg.Name, err))
	}
	return errors.Join(errs...)
}

func (bs *BucketStore) PublicURL(category objectstore.Category, key string) string {
	cfg, err := bs.buckets.For(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.CDNDomain, key)
	}
	if bs.storageMode == objectstore.ModeGCSEmulator {
		base := bs.publicBaseURL
		if base == "" {
			base = bs.emulatorHost
		}
		if base != "" {
			return emulatorMediaURL(base, cfg.Name, key)
		}
	}
	if bs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, cfg.Name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Name, key)
}

func emulatorMediaURL(base, bucket, key string) string {
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		strings.TrimRight(strings.TrimSpace(base), "/"),
		url.PathEscape(bucket),
		url.PathEscape(key),
	)
}

// readCloserWithCancel ties the download context to the reader. Cancelling
// before the caller has drained the body would truncate it.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *BucketStore) isEmulatorMode() bool {
	return bs != nil && bs.storageMode == objectstore.ModeGCSEmulator && bs.emulatorHost != ""
}

func (bs *BucketStore) Download(ctx context.Context, category objectstore.Category, key string) (io.ReadCloser, error) {
	cfg, err := bs.buckets.For(category)
	if err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)

	if bs.isEmulatorMode() {
		req, err := http.NewRequestWithContext(ctx2, http.MethodGet, emulatorMediaURL(bs.emulatorHost, cfg.Name, key), nil)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed creating emulator download request: %w", err)
		}
		resp, err := bs.httpClient.Do(req)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed emulator download request: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("%s/%s: %w", cfg.Name, key, objectstore.ErrNotFound)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return &readCloserWithCancel{ReadCloser: resp.Body, cancel: cancel}, nil
	}

	r, err := bs.storageClient.Bucket(cfg.Name).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s/%s: %w", cfg.Name, key, objectstore.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (bs *BucketStore) Close() error {
	if bs == nil || bs.storageClient == nil {
		return nil
	}
	return bs.storageClient.Close()
}
