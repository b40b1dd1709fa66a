package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/oceanml-backend/internal/data/repos"
	types "github.com/yungbote/oceanml-backend/internal/domain"
	"github.com/yungbote/oceanml-backend/internal/observability"
	"github.com/yungbote/oceanml-backend/internal/platform/dbctx"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/platform/objectstore"
)

const maxLeaseAttempts = 3

type LockConfig struct {
	DefaultDuration time.Duration
	MaxDuration     time.Duration
}

// LeaseResult is the outcome of an acquire. A denial is a result with
// Granted=false, not an error.
type LeaseResult struct {
	Granted     bool       `json:"granted"`
	VideoID     uuid.UUID  `json:"video_id"`
	Holder      string     `json:"holder"`
	AcquiredAt  *time.Time `json:"acquired_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	DownloadURL string     `json:"download_url,omitempty"`
}

type LockService interface {
	Acquire(ctx context.Context, videoID uuid.UUID, requester string, leaseDuration time.Duration) (*LeaseResult, error)
	Release(ctx context.Context, videoID uuid.UUID, actor string) error
	DefaultDuration() time.Duration
	MaxDuration() time.Duration
}

type lockService struct {
	log      *logger.Logger
	videos   repos.VideoRepo
	blobs    objectstore.Store
	activity ActivityService
	clock    Clock
	cfg      LockConfig
}

func NewLockService(
	baseLog *logger.Logger,
	videos repos.VideoRepo,
	blobs objectstore.Store,
	activity ActivityService,
	clock Clock,
	cfg LockConfig,
) LockService {
	if cfg.DefaultDuration < 0 {
		cfg.DefaultDuration = 60 * time.Minute
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 24 * time.Hour
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &lockService{
		log:      baseLog.With("service", "LockService"),
		videos:   videos,
		blobs:    blobs,
		activity: activity,
		clock:    clock,
		cfg:      cfg,
	}
}

func (s *lockService) DefaultDuration() time.Duration { return s.cfg.DefaultDuration }
func (s *lockService) MaxDuration() time.Duration     { return s.cfg.MaxDuration }

func (s *lockService) Acquire(ctx context.Context, videoID uuid.UUID, requester string, leaseDuration time.Duration) (*LeaseResult, error) {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return nil, ErrIdentityRequired
	}
	if leaseDuration < 0 {
		return nil, invalidf("lease duration must not be negative")
	}
	if leaseDuration > s.cfg.MaxDuration {
		return nil, invalidf("lease duration %s exceeds maximum %s", leaseDuration, s.cfg.MaxDuration)
	}
	metrics := observability.Current()

	for attempt := 1; attempt <= maxLeaseAttempts; attempt++ {
		video, err := getVideo(ctx, s.videos, videoID)
		if err != nil {
			if !isClientError(err) {
				metrics.IncLeaseDecision(observability.LeaseError)
			}
			return nil, err
		}

		now := s.clock.Now()
		if holder, expiresAt, ok := video.ActiveLease(now); ok {
			metrics.IncLeaseDecision(observability.LeaseDenied)
			s.log.Debug("lease denied", "video_id", videoID, "holder", holder, "requester", requester)
			return &LeaseResult{
				Granted:   false,
				VideoID:   videoID,
				Holder:    holder,
				ExpiresAt: expiresAt,
			}, nil
		}

		expiresAt := now.Add(leaseDuration)
		granted, err := s.videos.TryAcquireLease(dbctx.New(ctx), videoID, requester, now, expiresAt)
		if err != nil {
			metrics.IncLeaseDecision(observability.LeaseError)
			return nil, storeErr("acquire lease", err)
		}
		if granted {
			metrics.IncLeaseDecision(observability.LeaseGranted)
			s.log.Info("lease granted", "video_id", videoID, "holder", requester, "expires_at", expiresAt)
			s.activity.Record(ctx, ActivityEntry{
				Action:       types.ActionAnnotationStarted,
				ResourceType: types.ResourceVideo,
				ResourceID:   videoID.String(),
				Actor:        requester,
				Metadata: map[string]any{
					"lease_expires_at": expiresAt.Format(time.RFC3339Nano),
				},
			})
			acquiredAt := now
			return &LeaseResult{
				Granted:     true,
				VideoID:     videoID,
				Holder:      requester,
				AcquiredAt:  &acquiredAt,
				ExpiresAt:   expiresAt,
				DownloadURL: s.blobs.PublicURL(objectstore.CategoryVideos, video.StoragePath),
			}, nil
		}
		// The conditional update lost to a concurrent writer. Re-read and
		// decide again.
		s.log.Debug("lease compare-and-swap missed", "video_id", videoID, "attempt", attempt)
	}

	metrics.IncLeaseDecision(observability.LeaseConflict)
	return nil, fmt.Errorf("%w: lease for video %s changed during %d attempts", ErrConflict, videoID, maxLeaseAttempts)
}

// Release clears any lease on the video. It does not check who holds it and
// is a no-op for unleased or unknown videos.
func (s *lockService) Release(ctx context.Context, videoID uuid.UUID, actor string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrIdentityRequired
	}
	cleared, err := s.videos.ClearLease(dbctx.New(ctx), videoID)
	if err != nil {
		return storeErr("release lease", err)
	}
	if !cleared {
		return nil
	}
	s.log.Info("lease released", "video_id", videoID, "actor", actor)
	s.activity.Record(ctx, ActivityEntry{
		Action:       types.ActionAnnotationReleased,
		ResourceType: types.ResourceVideo,
		ResourceID:   videoID.String(),
		Actor:        actor,
	})
	return nil
}
