package activity

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/oceanml-backend/internal/domain"
	"github.com/yungbote/oceanml-backend/internal/platform/dbctx"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

// ActivityLogRepo is append-only: there is no update or delete.
type ActivityLogRepo interface {
	Create(dbc dbctx.Context, entry *types.ActivityLog) error
	ListByResource(dbc dbctx.Context, resourceType, resourceID string, limit int) ([]*types.ActivityLog, error)
}

type activityLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityLogRepo(db *gorm.DB, baseLog *logger.Logger) ActivityLogRepo {
	return &activityLogRepo{
		db:  db,
		log: baseLog.With("repo", "ActivityLogRepo"),
	}
}

func (r *activityLogRepo) Create(dbc dbctx.Context, entry *types.ActivityLog) error {
	if entry == nil || entry.ActionType == "" {
		return errors.New("activity entry with action_type required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(entry).Error
}

// ListByResource returns the newest entries first.
func (r *activityLogRepo) ListByResource(dbc dbctx.Context, resourceType, resourceID string, limit int) ([]*types.ActivityLog, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.ActivityLog
	err := transaction.WithContext(dbc.Ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
