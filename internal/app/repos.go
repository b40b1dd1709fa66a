package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/oceanml-backend/internal/data/repos"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

type Repos struct {
	Video       repos.VideoRepo
	Annotation  repos.AnnotationRepo
	ActivityLog repos.ActivityLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Video:       repos.NewVideoRepo(db, log),
		Annotation:  repos.NewAnnotationRepo(db, log),
		ActivityLog: repos.NewActivityLogRepo(db, log),
	}
}
