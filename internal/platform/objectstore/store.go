package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/oceanml-backend/internal/platform/envutil"
)

type Category string

const (
	CategoryVideos      Category = "videos"
	CategoryAnnotations Category = "annotations"
)

var ErrNotFound = errors.New("object not found")

// Store is blob storage keyed by (category, key). Each category maps to one
// bucket. Delete ignores keys that do not exist.
type Store interface {
	Upload(ctx context.Context, category Category, key string, r io.Reader) error
	Download(ctx context.Context, category Category, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, category Category, keys ...string) error
	PublicURL(category Category, key string) string
	Close() error
}

type BucketConfig struct {
	Name      string
	CDNDomain string
}

type Buckets struct {
	Videos      BucketConfig
	Annotations BucketConfig
}

func BucketsFromEnv() Buckets {
	return Buckets{
		Videos: BucketConfig{
			Name:      envutil.String("VIDEOS_BUCKET_NAME", "videos"),
			CDNDomain: envutil.String("VIDEOS_CDN_DOMAIN", ""),
		},
		Annotations: BucketConfig{
			Name:      envutil.String("ANNOTATIONS_BUCKET_NAME", "annotations"),
			CDNDomain: envutil.String("ANNOTATIONS_CDN_DOMAIN", ""),
		},
	}
}

func (b Buckets) For(category Category) (BucketConfig, error) {
	switch category {
	case CategoryVideos:
		return b.Videos, nil
	case CategoryAnnotations:
		return b.Annotations, nil
	default:
		return BucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case s == "":
		return ""
	case strings.HasSuffix(s, ".mp4"), strings.HasSuffix(s, ".m4v"):
		return "video/mp4"
	case strings.HasSuffix(s, ".webm"):
		return "video/webm"
	case strings.HasSuffix(s, ".mov"):
		return "video/quicktime"
	case strings.HasSuffix(s, ".avi"):
		return "video/x-msvideo"
	case strings.HasSuffix(s, ".mkv"):
		return "video/x-matroska"
	case strings.HasSuffix(s, ".txt"):
		return "text/plain; charset=utf-8"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}
