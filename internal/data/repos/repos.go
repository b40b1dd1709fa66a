package repos

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/oceanml-backend/internal/data/repos/activity"
	"github.com/yungbote/oceanml-backend/internal/data/repos/videos"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

type VideoRepo = videos.VideoRepo
type VideoFilter = videos.VideoFilter
type AnnotationRepo = videos.AnnotationRepo
type ActivityLogRepo = activity.ActivityLogRepo

func NewVideoRepo(db *gorm.DB, log *logger.Logger) VideoRepo {
	return videos.NewVideoRepo(db, log)
}

func NewAnnotationRepo(db *gorm.DB, log *logger.Logger) AnnotationRepo {
	return videos.NewAnnotationRepo(db, log)
}

func NewActivityLogRepo(db *gorm.DB, log *logger.Logger) ActivityLogRepo {
	return activity.NewActivityLogRepo(db, log)
}

// IsUniqueViolation matches Postgres SQLSTATE 23505 and gorm's translated
// duplicate-key error.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
