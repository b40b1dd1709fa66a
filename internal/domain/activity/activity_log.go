package activity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionAnnotationStarted   = "annotation_started"
	ActionAnnotationReleased  = "annotation_released"
	ActionAnnotationCompleted = "annotation_completed"
	ActionAnnotationDeleted   = "annotation_deleted"
	ActionVideoUploaded       = "video_uploaded"
	ActionVideoUpdated        = "video_updated"
	ActionVideoDeleted        = "video_deleted"
)

const ResourceVideo = "video"

// ActivityLog is an append-only audit row. Rows are never updated.
type ActivityLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ActionType   string         `gorm:"column:action_type;not null;index" json:"action_type"`
	ResourceType string         `gorm:"column:resource_type;index:idx_activity_resource" json:"resource_type,omitempty"`
	ResourceID   string         `gorm:"column:resource_id;index:idx_activity_resource" json:"resource_id,omitempty"`
	Actor        string         `gorm:"column:actor;index" json:"actor,omitempty"`
	Metadata     datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	CreatedAt    time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_log" }

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
