package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/oceanml-backend/internal/data/repos"
	types "github.com/yungbote/oceanml-backend/internal/domain"
	"github.com/yungbote/oceanml-backend/internal/observability"
	"github.com/yungbote/oceanml-backend/internal/platform/dbctx"
	"github.com/yungbote/oceanml-backend/internal/platform/keylock"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/platform/objectstore"
)

type AnnotationConfig struct {
	// RequireLeaseHolder rejects completions from anyone but the active
	// lease holder.
	RequireLeaseHolder bool
}

type CompleteInput struct {
	VideoID         uuid.UUID
	Requester       string
	Data            string
	FramesAnnotated int
	DetectionCount  int
	SpeciesCounts   map[string]int
}

type AnnotationService interface {
	Complete(ctx context.Context, in CompleteInput) (*types.Video, error)
	Get(ctx context.Context, videoID uuid.UUID) (*types.Annotation, error)
	OpenData(ctx context.Context, videoID uuid.UUID) (io.ReadCloser, error)
	Delete(ctx context.Context, videoID uuid.UUID, actor string) error
}

type annotationService struct {
	db          *gorm.DB
	log         *logger.Logger
	videos      repos.VideoRepo
	annotations repos.AnnotationRepo
	blobs       objectstore.Store
	locks       keylock.Locker
	activity    ActivityService
	clock       Clock
	cfg         AnnotationConfig
}

func NewAnnotationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	videos repos.VideoRepo,
	annotations repos.AnnotationRepo,
	blobs objectstore.Store,
	locks keylock.Locker,
	activity ActivityService,
	clock Clock,
	cfg AnnotationConfig,
) AnnotationService {
	if clock == nil {
		clock = SystemClock()
	}
	if locks == nil {
		locks = keylock.NewLocal()
	}
	return &annotationService{
		db:          db,
		log:         baseLog.With("service", "AnnotationService"),
		videos:      videos,
		annotations: annotations,
		blobs:       blobs,
		locks:       locks,
		activity:    activity,
		clock:       clock,
		cfg:         cfg,
	}
}

func (s *annotationService) Complete(ctx context.Context, in CompleteInput) (video *types.Video, err error) {
	start := time.Now()
	defer func() { s.observe("complete", start, err) }()

	if in.Data == "" {
		return nil, invalidf("annotation_data is required")
	}
	if in.FramesAnnotated < 0 || in.DetectionCount < 0 {
		return nil, invalidf("counts must not be negative")
	}
	for label, n := range in.SpeciesCounts {
		if strings.TrimSpace(label) == "" || n < 0 {
			return nil, invalidf("species_counts entries need a label and a non-negative count")
		}
	}
	requester := strings.TrimSpace(in.Requester)
	if requester == "" {
		return nil, ErrIdentityRequired
	}
	speciesJSON, err := types.EncodeSpeciesCounts(in.SpeciesCounts)
	if err != nil {
		return nil, invalidf("species_counts: %v", err)
	}

	unlock, err := s.locks.Lock(ctx, keylock.VideoKey(in.VideoID.String()))
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := getVideo(ctx, s.videos, in.VideoID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if s.cfg.RequireLeaseHolder {
		holder, _, ok := current.ActiveLease(now)
		if !ok || holder != requester {
			return nil, ErrNotLeaseHolder
		}
	}

	storagePath := types.AnnotationStoragePath(in.VideoID)
	payload := []byte(in.Data)
	err = retryIdempotent(ctx, func() error {
		return s.blobs.Upload(ctx, objectstore.CategoryAnnotations, storagePath, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, storeErr("upload annotation", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		row := &types.Annotation{
			VideoID:         in.VideoID,
			FramesAnnotated: in.FramesAnnotated,
			DetectionCount:  in.DetectionCount,
			SpeciesCounts:   speciesJSON,
			StoragePath:     storagePath,
		}
		if err := s.annotations.Upsert(dbc, row); err != nil {
			return storeErr("upsert annotation", err)
		}
		ok, err := s.videos.MarkAnnotated(dbc, in.VideoID, requester, now, storagePath, in.DetectionCount)
		if err != nil {
			return storeErr("mark video annotated", err)
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("annotation completed",
		"video_id", in.VideoID,
		"actor", requester,
		"frames_annotated", in.FramesAnnotated,
		"detection_count", in.DetectionCount,
	)
	s.activity.Record(ctx, ActivityEntry{
		Action:       types.ActionAnnotationCompleted,
		ResourceType: types.ResourceVideo,
		ResourceID:   in.VideoID.String(),
		Actor:        requester,
		Metadata: map[string]any{
			"frames_annotated": in.FramesAnnotated,
			"detection_count":  in.DetectionCount,
		},
	})

	return getVideo(ctx, s.videos, in.VideoID)
}

func (s *annotationService) Get(ctx context.Context, videoID uuid.UUID) (*types.Annotation, error) {
	row, err := s.annotations.GetByVideoID(dbctx.New(ctx), videoID)
	if err != nil {
		return nil, storeErr("load annotation", err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

// OpenData streams the stored label file. The caller closes the reader.
func (s *annotationService) OpenData(ctx context.Context, videoID uuid.UUID) (io.ReadCloser, error) {
	row, err := s.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	rc, err := s.blobs.Download(ctx, objectstore.CategoryAnnotations, row.StoragePath)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr("download annotation", err)
	}
	return rc, nil
}

// Delete removes the annotation record and resets the video before touching
// the blob, so a failure leaves at worst an unreferenced object.
func (s *annotationService) Delete(ctx context.Context, videoID uuid.UUID, actor string) (err error) {
	start := time.Now()
	defer func() { s.observe("delete", start, err) }()

	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrIdentityRequired
	}

	unlock, err := s.locks.Lock(ctx, keylock.VideoKey(videoID.String()))
	if err != nil {
		return err
	}
	defer unlock()

	row, err := s.Get(ctx, videoID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.annotations.DeleteByVideoID(dbc, videoID); err != nil {
			return storeErr("delete annotation", err)
		}
		if _, err := s.videos.ClearAnnotation(dbc, videoID); err != nil {
			return storeErr("reset video annotation", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, objectstore.CategoryAnnotations, row.StoragePath); err != nil {
		s.log.Warn("annotation blob delete failed", "video_id", videoID, "path", row.StoragePath, "error", err)
	}

	s.log.Info("annotation deleted", "video_id", videoID, "actor", actor)
	s.activity.Record(ctx, ActivityEntry{
		Action:       types.ActionAnnotationDeleted,
		ResourceType: types.ResourceVideo,
		ResourceID:   videoID.String(),
		Actor:        actor,
	})
	return nil
}

func (s *annotationService) observe(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case err == nil:
	case isClientError(err):
		status = "rejected"
	default:
		status = "error"
	}
	observability.Current().ObserveAnnotationOp(op, status, time.Since(start))
}
