package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/oceanml-backend/internal/data/repos"
	types "github.com/yungbote/oceanml-backend/internal/domain"
	"github.com/yungbote/oceanml-backend/internal/platform/dbctx"
	"github.com/yungbote/oceanml-backend/internal/platform/keylock"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/platform/objectstore"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
	defaultVideoExt  = "mp4"
)

type VideoConfig struct {
	MaxUploadBytes int64
}

type ListVideosInput struct {
	Limit     int
	Offset    int
	Annotated *bool
}

type VideoPage struct {
	Videos []*types.Video `json:"videos"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type UploadVideoInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Uploader    string
}

type UpdateVideoInput struct {
	Filename *string
}

type VideoService interface {
	List(ctx context.Context, in ListVideosInput) (*VideoPage, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Video, error)
	DownloadURL(video *types.Video) string
	Upload(ctx context.Context, in UploadVideoInput) (*types.Video, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateVideoInput, actor string) (*types.Video, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) error
}

type videoService struct {
	db          *gorm.DB
	log         *logger.Logger
	videos      repos.VideoRepo
	annotations repos.AnnotationRepo
	blobs       objectstore.Store
	locks       keylock.Locker
	activity    ActivityService
	cfg         VideoConfig
}

func NewVideoService(
	db *gorm.DB,
	baseLog *logger.Logger,
	videos repos.VideoRepo,
	annotations repos.AnnotationRepo,
	blobs objectstore.Store,
	locks keylock.Locker,
	activity ActivityService,
	cfg VideoConfig,
) VideoService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 100 << 20
	}
	if locks == nil {
		locks = keylock.NewLocal()
	}
	return &videoService{
		db:          db,
		log:         baseLog.With("service", "VideoService"),
		videos:      videos,
		annotations: annotations,
		blobs:       blobs,
		locks:       locks,
		activity:    activity,
		cfg:         cfg,
	}
}

func (s *videoService) List(ctx context.Context, in ListVideosInput) (*VideoPage, error) {
	if in.Limit <= 0 {
		in.Limit = defaultListLimit
	}
	if in.Limit > maxListLimit {
		in.Limit = maxListLimit
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	var (
		rows  []*types.Video
		total int64
	)
	err := retryIdempotent(ctx, func() error {
		var err error
		rows, total, err = s.videos.List(dbctx.New(ctx), repos.VideoFilter{
			Limit:     in.Limit,
			Offset:    in.Offset,
			Annotated: in.Annotated,
		})
		return err
	})
	if err != nil {
		return nil, storeErr("list videos", err)
	}
	if rows == nil {
		rows = []*types.Video{}
	}
	return &VideoPage{Videos: rows, Total: total, Limit: in.Limit, Offset: in.Offset}, nil
}

func (s *videoService) Get(ctx context.Context, id uuid.UUID) (*types.Video, error) {
	return getVideo(ctx, s.videos, id)
}

func (s *videoService) DownloadURL(video *types.Video) string {
	if video == nil || video.StoragePath == "" {
		return ""
	}
	return s.blobs.PublicURL(objectstore.CategoryVideos, video.StoragePath)
}

func (s *videoService) Upload(ctx context.Context, in UploadVideoInput) (*types.Video, error) {
	uploader := strings.TrimSpace(in.Uploader)
	if uploader == "" {
		return nil, ErrIdentityRequired
	}
	filename := strings.TrimSpace(path.Base(strings.ReplaceAll(in.Filename, "\\", "/")))
	if filename == "" || filename == "." || filename == "/" {
		return nil, invalidf("filename is required")
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(in.ContentType)), "video/") {
		return nil, invalidf("file must be a video, got content type %q", in.ContentType)
	}
	if in.Body == nil {
		return nil, invalidf("file body is required")
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(in.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if n > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrTooLarge, s.cfg.MaxUploadBytes)
	}

	id := uuid.New()
	storagePath := VideoStoragePath(id, filename)
	if err := s.blobs.Upload(ctx, objectstore.CategoryVideos, storagePath, bytes.NewReader(buf.Bytes())); err != nil {
		return nil, storeErr("upload video", err)
	}

	created, err := s.videos.Create(dbctx.New(ctx), &types.Video{
		ID:            id,
		Filename:      filename,
		StoragePath:   storagePath,
		FileSizeBytes: n,
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), objectstore.CategoryVideos, storagePath); delErr != nil {
			s.log.Warn("orphan video blob cleanup failed", "path", storagePath, "error", delErr)
		}
		if repos.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: video %s already exists", ErrConflict, id)
		}
		return nil, storeErr("create video", err)
	}

	s.log.Info("video uploaded", "video_id", id, "actor", uploader, "size", n)
	s.activity.Record(ctx, ActivityEntry{
		Action:       types.ActionVideoUploaded,
		ResourceType: types.ResourceVideo,
		ResourceID:   id.String(),
		Actor:        uploader,
		Metadata: map[string]any{
			"filename": filename,
			"size":     n,
		},
	})
	return created, nil
}

func (s *videoService) Update(ctx context.Context, id uuid.UUID, in UpdateVideoInput, actor string) (*types.Video, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, ErrIdentityRequired
	}
	current, err := getVideo(ctx, s.videos, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Filename != nil {
		name := strings.TrimSpace(*in.Filename)
		if name == "" {
			return nil, invalidf("filename must not be empty")
		}
		if name != current.Filename {
			updates["filename"] = name
		}
	}
	if len(updates) == 0 {
		return current, nil
	}

	if _, err := s.videos.UpdateFields(dbctx.New(ctx), id, updates); err != nil {
		return nil, storeErr("update video", err)
	}
	s.activity.Record(ctx, ActivityEntry{
		Action:       types.ActionVideoUpdated,
		ResourceType: types.ResourceVideo,
		ResourceID:   id.String(),
		Actor:        actor,
		Metadata:     updates,
	})
	return getVideo(ctx, s.videos, id)
}

func (s *videoService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrIdentityRequired
	}
	unlock, err := s.locks.Lock(ctx, keylock.VideoKey(id.String()))
	if err != nil {
		return err
	}
	defer unlock()

	video, err := getVideo(ctx, s.videos, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.annotations.DeleteByVideoID(dbc, id); err != nil {
			return storeErr("delete annotation", err)
		}
		if _, err := s.videos.Delete(dbc, id); err != nil {
			return storeErr("delete video", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	annotationPath := types.AnnotationStoragePath(id)
	if video.AnnotationStoragePath != nil && *video.AnnotationStoragePath != "" {
		annotationPath = *video.AnnotationStoragePath
	}
	// Blob removal is best-effort; the records are already gone.
	cleanupCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.Go(func() error {
		return s.blobs.Delete(cleanupCtx, objectstore.CategoryVideos, video.StoragePath)
	})
	g.Go(func() error {
		return s.blobs.Delete(cleanupCtx, objectstore.CategoryAnnotations, annotationPath)
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("video blob cleanup failed", "video_id", id, "error", err)
	}

	s.log.Info("video deleted", "video_id", id, "actor", actor)
	s.activity.Record(ctx, ActivityEntry{
		Action:       types.ActionVideoDeleted,
		ResourceType: types.ResourceVideo,
		ResourceID:   id.String(),
		Actor:        actor,
		Metadata:     map[string]any{"filename": video.Filename},
	})
	return nil
}

// VideoStoragePath is videos/{id}.{ext}, with ext taken from the filename's
// last dot and defaulting to mp4.
func VideoStoragePath(id uuid.UUID, filename string) string {
	ext := defaultVideoExt
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		candidate := strings.ToLower(filename[i+1:])
		if !strings.ContainsAny(candidate, "/\\ ") {
			ext = candidate
		}
	}
	return fmt.Sprintf("videos/%s.%s", id, ext)
}
