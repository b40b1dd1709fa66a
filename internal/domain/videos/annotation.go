package videos

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Annotation is the one-per-video label summary. VideoID is the key, so a
// repeated completion replaces the row instead of adding one.
type Annotation struct {
	VideoID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"video_id"`
	FramesAnnotated int            `gorm:"column:frames_annotated;not null;default:0" json:"frames_annotated"`
	DetectionCount  int            `gorm:"column:detection_count;not null;default:0" json:"detection_count"`
	SpeciesCounts   datatypes.JSON `gorm:"column:species_counts" json:"species_counts"`
	StoragePath     string         `gorm:"column:storage_path;not null" json:"storage_path"`
	CreatedAt       time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Annotation) TableName() string { return "annotations" }

// AnnotationStoragePath is the blob key for a video's label file.
func AnnotationStoragePath(videoID uuid.UUID) string {
	return fmt.Sprintf("annotations/%s.txt", videoID)
}

func EncodeSpeciesCounts(counts map[string]int) (datatypes.JSON, error) {
	if counts == nil {
		counts = map[string]int{}
	}
	b, err := json.Marshal(counts)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func (a *Annotation) SpeciesCountMap() (map[string]int, error) {
	out := map[string]int{}
	if a == nil || len(a.SpeciesCounts) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(a.SpeciesCounts, &out); err != nil {
		return nil, fmt.Errorf("decode species_counts: %w", err)
	}
	return out, nil
}
