package domain

import (
	"github.com/yungbote/oceanml-backend/internal/domain/activity"
	"github.com/yungbote/oceanml-backend/internal/domain/videos"
)

const (
	ActionAnnotationStarted   = activity.ActionAnnotationStarted
	ActionAnnotationReleased  = activity.ActionAnnotationReleased
	ActionAnnotationCompleted = activity.ActionAnnotationCompleted
	ActionAnnotationDeleted   = activity.ActionAnnotationDeleted
	ActionVideoUploaded       = activity.ActionVideoUploaded
	ActionVideoUpdated        = activity.ActionVideoUpdated
	ActionVideoDeleted        = activity.ActionVideoDeleted

	ResourceVideo = activity.ResourceVideo
)

type (
	Video       = videos.Video
	Annotation  = videos.Annotation
	ActivityLog = activity.ActivityLog
)

var (
	AnnotationStoragePath = videos.AnnotationStoragePath
	EncodeSpeciesCounts   = videos.EncodeSpeciesCounts
)

// Models lists every persisted type, in migration order.
func Models() []interface{} {
	return []interface{}{
		&Video{},
		&Annotation{},
		&ActivityLog{},
	}
}
