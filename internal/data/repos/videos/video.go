package videos

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/oceanml-backend/internal/domain"
	"github.com/yungbote/oceanml-backend/internal/platform/dbctx"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

type VideoFilter struct {
	Limit     int
	Offset    int
	Annotated *bool
}

type VideoRepo interface {
	Create(dbc dbctx.Context, v *types.Video) (*types.Video, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Video, error)
	List(dbc dbctx.Context, filter VideoFilter) ([]*types.Video, int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (bool, error)
	TryAcquireLease(dbc dbctx.Context, id uuid.UUID, holder string, now, expiresAt time.Time) (bool, error)
	ClearLease(dbc dbctx.Context, id uuid.UUID) (bool, error)
	MarkAnnotated(dbc dbctx.Context, id uuid.UUID, annotatedBy string, at time.Time, storagePath string, detectionCount int) (bool, error)
	ClearAnnotation(dbc dbctx.Context, id uuid.UUID) (bool, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type videoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
	return &videoRepo{
		db:  db,
		log: baseLog.With("repo", "VideoRepo"),
	}
}

func (r *videoRepo) handle(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *videoRepo) Create(dbc dbctx.Context, v *types.Video) (*types.Video, error) {
	if v == nil {
		return nil, errors.New("video required")
	}
	if err := r.handle(dbc).Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// GetByID returns (nil, nil) when the video does not exist.
func (r *videoRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Video, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.Video
	err := r.handle(dbc).Where("id = ?", id).Limit(1).Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *videoRepo) List(dbc dbctx.Context, filter VideoFilter) ([]*types.Video, int64, error) {
	q := r.handle(dbc).Model(&types.Video{})
	if filter.Annotated != nil {
		q = q.Where("annotated = ?", *filter.Annotated)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("created_at DESC").Order("id ASC").Offset(filter.Offset)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var out []*types.Video
	err := q.Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *videoRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil || len(updates) == 0 {
		return false, nil
	}
	res := r.handle(dbc).Model(&types.Video{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// TryAcquireLease sets the lease only if no live lease exists at now. The
// check and the write are one statement, so concurrent callers cannot both
// win.
func (r *videoRepo) TryAcquireLease(dbc dbctx.Context, id uuid.UUID, holder string, now, expiresAt time.Time) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	res := r.handle(dbc).Model(&types.Video{}).
		Where("id = ?", id).
		Where("(locked_by IS NULL OR lock_expires_at IS NULL OR lock_expires_at <= ?)", now).
		Updates(map[string]interface{}{
			"locked_by":       holder,
			"locked_at":       now,
			"lock_expires_at": expiresAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClearLease reports whether any lease field was set before clearing.
func (r *videoRepo) ClearLease(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	res := r.handle(dbc).Model(&types.Video{}).
		Where("id = ?", id).
		Where("(locked_by IS NOT NULL OR locked_at IS NOT NULL OR lock_expires_at IS NOT NULL)").
		Updates(leaseCleared())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *videoRepo) MarkAnnotated(dbc dbctx.Context, id uuid.UUID, annotatedBy string, at time.Time, storagePath string, detectionCount int) (bool, error) {
	updates := leaseCleared()
	updates["annotated"] = true
	updates["annotated_by"] = annotatedBy
	updates["annotated_at"] = at
	updates["annotation_storage_path"] = storagePath
	updates["detection_count"] = detectionCount
	return r.UpdateFields(dbc, id, updates)
}

func (r *videoRepo) ClearAnnotation(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	return r.UpdateFields(dbc, id, map[string]interface{}{
		"annotated":               false,
		"annotated_by":            gorm.Expr("NULL"),
		"annotated_at":            gorm.Expr("NULL"),
		"annotation_storage_path": gorm.Expr("NULL"),
		"detection_count":         0,
	})
}

func (r *videoRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	res := r.handle(dbc).Where("id = ?", id).Delete(&types.Video{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func leaseCleared() map[string]interface{} {
	return map[string]interface{}{
		"locked_by":       gorm.Expr("NULL"),
		"locked_at":       gorm.Expr("NULL"),
		"lock_expires_at": gorm.Expr("NULL"),
	}
}
