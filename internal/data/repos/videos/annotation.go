package videos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/oceanml-backend/internal/domain"
	"github.com/yungbote/oceanml-backend/internal/platform/dbctx"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

type AnnotationRepo interface {
	Upsert(dbc dbctx.Context, a *types.Annotation) error
	GetByVideoID(dbc dbctx.Context, videoID uuid.UUID) (*types.Annotation, error)
	DeleteByVideoID(dbc dbctx.Context, videoID uuid.UUID) (bool, error)
}

type annotationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnotationRepo(db *gorm.DB, baseLog *logger.Logger) AnnotationRepo {
	return &annotationRepo{
		db:  db,
		log: baseLog.With("repo", "AnnotationRepo"),
	}
}

// Upsert inserts or replaces the annotation for a.VideoID. created_at of an
// existing row is kept.
func (r *annotationRepo) Upsert(dbc dbctx.Context, a *types.Annotation) error {
	if a == nil || a.VideoID == uuid.Nil {
		return errors.New("annotation with video_id required")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "video_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"frames_annotated",
				"detection_count",
				"species_counts",
				"storage_path",
				"updated_at",
			}),
		}).
		Create(a).Error
}

func (r *annotationRepo) GetByVideoID(dbc dbctx.Context, videoID uuid.UUID) (*types.Annotation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if videoID == uuid.Nil {
		return nil, nil
	}
	var out types.Annotation
	err := transaction.WithContext(dbc.Ctx).Where("video_id = ?", videoID).Limit(1).Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.VideoID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *annotationRepo) DeleteByVideoID(dbc dbctx.Context, videoID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if videoID == uuid.Nil {
		return false, nil
	}
	res := transaction.WithContext(dbc.Ctx).Where("video_id = ?", videoID).Delete(&types.Annotation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
