package services

import (
	"context"
	"encoding/json"
	"strings"

	"gorm.io/datatypes"

	"github.com/yungbote/oceanml-backend/internal/data/repos"
	types "github.com/yungbote/oceanml-backend/internal/domain"
	"github.com/yungbote/oceanml-backend/internal/platform/dbctx"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

// ActivityPublisher fans recorded entries out to other processes.
type ActivityPublisher interface {
	Publish(ctx context.Context, entry *types.ActivityLog) error
}

type ActivityEntry struct {
	Action       string
	ResourceType string
	ResourceID   string
	Actor        string
	Metadata     map[string]any
}

type ActivityService interface {
	// Record never fails the caller; problems are logged.
	Record(ctx context.Context, entry ActivityEntry)
	ListForResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*types.ActivityLog, error)
}

type activityService struct {
	log       *logger.Logger
	repo      repos.ActivityLogRepo
	publisher ActivityPublisher
}

func NewActivityService(baseLog *logger.Logger, repo repos.ActivityLogRepo, publisher ActivityPublisher) ActivityService {
	return &activityService{
		log:       baseLog.With("service", "ActivityService"),
		repo:      repo,
		publisher: publisher,
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) {
	if s == nil || s.repo == nil {
		return
	}
	// The audit row should land even if the request that caused it is gone.
	ctx = context.WithoutCancel(ctx)

	meta := entry.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		s.log.Warn("activity metadata encode failed", "action", entry.Action, "error", err)
		raw = []byte("{}")
	}
	row := &types.ActivityLog{
		ActionType:   entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Actor:        strings.TrimSpace(entry.Actor),
		Metadata:     datatypes.JSON(raw),
	}
	if err := s.repo.Create(dbctx.New(ctx), row); err != nil {
		s.log.Warn("activity record failed", "action", entry.Action, "resource_id", entry.ResourceID, "error", err)
		return
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, row); err != nil {
			s.log.Warn("activity publish failed", "action", entry.Action, "resource_id", entry.ResourceID, "error", err)
		}
	}
}

func (s *activityService) ListForResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*types.ActivityLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.repo.ListByResource(dbctx.New(ctx), resourceType, resourceID, limit)
	if err != nil {
		return nil, storeErr("list activity", err)
	}
	return rows, nil
}
