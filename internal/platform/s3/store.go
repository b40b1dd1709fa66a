// Package s3 stores video and annotation blobs in AWS S3 or an
// S3-compatible endpoint (MinIO, R2).
//
// Credentials come from the AWS default chain: environment variables, the
// shared credentials file, then the instance role.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/yungbote/oceanml-backend/internal/platform/envutil"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/platform/objectstore"
)

const maxKeyLength = 1024

type Config struct {
	// Region defaults to us-east-1.
	Region string
	// Endpoint overrides the AWS endpoint for S3-compatible services.
	Endpoint       string
	ForcePathStyle bool
	PublicBaseURL  string
}

func ConfigFromEnv() Config {
	return Config{
		Region:         envutil.String("S3_REGION", "us-east-1"),
		Endpoint:       strings.TrimRight(envutil.String("S3_ENDPOINT", ""), "/"),
		ForcePathStyle: envutil.Bool("S3_FORCE_PATH_STYLE", false),
		PublicBaseURL:  strings.TrimRight(envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""), "/"),
	}
}

type Store struct {
	log     *logger.Logger
	client  *s3.Client
	cfg     Config
	buckets objectstore.Buckets
}

var _ objectstore.Store = (*Store)(nil)

func New(ctx context.Context, log *logger.Logger, cfg Config, buckets objectstore.Buckets) (*Store, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	storeLog := log.With("service", "S3Store")
	storeLog.Info(
		"Object storage initialized",
		"mode", objectstore.ModeS3,
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
		"path_style", cfg.ForcePathStyle,
		"videos_bucket", buckets.Videos.Name,
		"annotations_bucket", buckets.Annotations.Name,
	)
	return &Store{log: storeLog, client: client, cfg: cfg, buckets: buckets}, nil
}

// Upload buffers the body so the SDK can sign a seekable payload. Callers
// cap upload sizes before reaching here.
func (s *Store) Upload(ctx context.Context, category objectstore.Category, key string, r io.Reader) error {
	bucket, err := s.buckets.For(category)
	if err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	in := &s3.PutObjectInput{
		Bucket:        aws.String(bucket.Name),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if ct := objectstore.ContentTypeForKey(key); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket.Name, key, err)
	}
	return nil
}

func (s *Store) Download(ctx context.Context, category objectstore.Category, key string) (io.ReadCloser, error) {
	bucket, err := s.buckets.For(category)
	if err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket.Name),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("s3://%s/%s: %w", bucket.Name, key, objectstore.ErrNotFound)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket.Name, key, err)
	}
	return out.Body, nil
}

// Delete removes each key. S3 reports success for keys that do not exist.
func (s *Store) Delete(ctx context.Context, category objectstore.Category, keys ...string) error {
	bucket, err := s.buckets.For(category)
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
		if err := validateKey(key); err != nil {
			errs = append(errs, err)
			continue
		}
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket.Name),
			Key:    aws.String(key),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("delete s3://%s/%s: %w", bucket.Name, key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) PublicURL(category objectstore.Category, key string) string {
	bucket, err := s.buckets.For(category)
	if err != nil {
		return key
	}
	return publicURL(s.cfg, bucket, key)
}

func publicURL(cfg Config, bucket objectstore.BucketConfig, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	switch {
	case bucket.CDNDomain != "":
		return fmt.Sprintf("https://%s/%s", bucket.CDNDomain, key)
	case cfg.PublicBaseURL != "":
		return fmt.Sprintf("%s/%s/%s", cfg.PublicBaseURL, bucket.Name, key)
	case cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", cfg.Endpoint, bucket.Name, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket.Name, cfg.Region, key)
	}
}

func (s *Store) Close() error { return nil }

// validateKey rejects keys that could escape the bucket prefix layout.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("S3 key cannot be empty")
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("S3 key too long: %d characters (max %d)", len(key), maxKeyLength)
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("S3 key contains path traversal: %s", key)
	}
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("S3 key should not start with /: %s", key)
	}
	if strings.Contains(key, "\x00") {
		return fmt.Errorf("S3 key contains null byte")
	}
	return nil
}
