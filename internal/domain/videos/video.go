package videos

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Video is an uploaded clip awaiting or carrying annotations. The lease
// (LockedBy, LockedAt, LockExpiresAt) lives on the row itself.
type Video struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Filename              string     `gorm:"column:filename;not null" json:"filename"`
	StoragePath           string     `gorm:"column:storage_path;not null" json:"storage_path"`
	FileSizeBytes         int64      `gorm:"column:file_size_bytes;not null;default:0" json:"file_size_bytes"`
	Annotated             bool       `gorm:"column:annotated;not null;default:false;index" json:"annotated"`
	AnnotatedBy           *string    `gorm:"column:annotated_by" json:"annotated_by,omitempty"`
	AnnotatedAt           *time.Time `gorm:"column:annotated_at" json:"annotated_at,omitempty"`
	AnnotationStoragePath *string    `gorm:"column:annotation_storage_path" json:"annotation_storage_path,omitempty"`
	DetectionCount        int        `gorm:"column:detection_count;not null;default:0" json:"detection_count"`
	LockedBy              *string    `gorm:"column:locked_by;index" json:"locked_by,omitempty"`
	LockedAt              *time.Time `gorm:"column:locked_at" json:"locked_at,omitempty"`
	LockExpiresAt         *time.Time `gorm:"column:lock_expires_at;index" json:"lock_expires_at,omitempty"`
	CreatedAt             time.Time  `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Video) TableName() string { return "videos" }

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// ActiveLease reports the current holder when the lease has not expired at
// now. Expiry is inclusive: a lease whose expiry equals now is gone.
func (v *Video) ActiveLease(now time.Time) (holder string, expiresAt time.Time, ok bool) {
	if v == nil || v.LockedBy == nil || strings.TrimSpace(*v.LockedBy) == "" || v.LockExpiresAt == nil {
		return "", time.Time{}, false
	}
	if !v.LockExpiresAt.After(now) {
		return "", time.Time{}, false
	}
	return *v.LockedBy, *v.LockExpiresAt, true
}
