package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/oceanml-backend/internal/data/repos"
	"github.com/yungbote/oceanml-backend/internal/data/repos/testutil"
	types "github.com/yungbote/oceanml-backend/internal/domain"
	"github.com/yungbote/oceanml-backend/internal/platform/dbctx"
	"github.com/yungbote/oceanml-backend/internal/platform/keylock"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/platform/objectstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu      sync.Mutex
	actions []string
}

func (p *recordingPublisher) Publish(ctx context.Context, entry *types.ActivityLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, entry.ActionType)
	return nil
}

func (p *recordingPublisher) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

type harness struct {
	db          *gorm.DB
	clock       *fakeClock
	blobs       *objectstore.Memory
	locks       *keylock.Local
	videoRepo   repos.VideoRepo
	annRepo     repos.AnnotationRepo
	activityLog repos.ActivityLogRepo
	published   *recordingPublisher
	activity    ActivityService
	lock        LockService
	annotations AnnotationService
	videos      VideoService
}

func newHarness(t *testing.T, annCfg AnnotationConfig) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		db:          db,
		clock:       newFakeClock(),
		blobs:       objectstore.NewMemory(""),
		locks:       keylock.NewLocal(),
		videoRepo:   repos.NewVideoRepo(db, log),
		annRepo:     repos.NewAnnotationRepo(db, log),
		activityLog: repos.NewActivityLogRepo(db, log),
		published:   &recordingPublisher{},
	}
	h.activity = NewActivityService(log, h.activityLog, h.published)
	h.lock = NewLockService(log, h.videoRepo, h.blobs, h.activity, h.clock, LockConfig{
		DefaultDuration: time.Hour,
		MaxDuration:     24 * time.Hour,
	})
	h.annotations = NewAnnotationService(db, log, h.videoRepo, h.annRepo, h.blobs, h.locks, h.activity, h.clock, annCfg)
	h.videos = NewVideoService(db, log, h.videoRepo, h.annRepo, h.blobs, h.locks, h.activity, VideoConfig{MaxUploadBytes: 1 << 10})
	return h
}

func (h *harness) seedVideo(t *testing.T) *types.Video {
	t.Helper()
	id := uuid.New()
	v, err := h.videoRepo.Create(dbctx.New(context.Background()), &types.Video{
		ID:            id,
		Filename:      "dive-" + id.String()[:8] + ".mp4",
		StoragePath:   "videos/" + id.String() + ".mp4",
		FileSizeBytes: 2048,
	})
	if err != nil {
		t.Fatalf("seed video: %v", err)
	}
	return v
}

func (h *harness) reload(t *testing.T, id uuid.UUID) *types.Video {
	t.Helper()
	v, err := h.videoRepo.GetByID(dbctx.New(context.Background()), id)
	if err != nil {
		t.Fatalf("reload video: %v", err)
	}
	return v
}

func (h *harness) actions(t *testing.T, id uuid.UUID) []string {
	t.Helper()
	rows, err := h.activityLog.ListByResource(dbctx.New(context.Background()), types.ResourceVideo, id.String(), 100)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	out := make([]string, 0, len(rows))
	// Newest first from the repo; flip to chronological order.
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i].ActionType)
	}
	return out
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func testLoggerFor(t *testing.T) *logger.Logger {
	t.Helper()
	return testutil.Logger(t)
}
