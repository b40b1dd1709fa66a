package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/oceanml-backend/internal/domain"
	"github.com/yungbote/oceanml-backend/internal/http/response"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/services"
)

type AnnotationHandler struct {
	log         *logger.Logger
	lock        services.LockService
	annotations services.AnnotationService
}

func NewAnnotationHandler(log *logger.Logger, lock services.LockService, annotations services.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{
		log:         log.With("handler", "AnnotationHandler"),
		lock:        lock,
		annotations: annotations,
	}
}

type lockResponse struct {
	Success     bool       `json:"success"`
	VideoID     uuid.UUID  `json:"video_id"`
	LockedBy    string     `json:"locked_by"`
	LockedAt    *time.Time `json:"locked_at,omitempty"`
	LockedUntil time.Time  `json:"locked_until"`
	DownloadURL string     `json:"download_url,omitempty"`
	Message     string     `json:"message"`
}

// POST /api/annotations/annotate/:video_id?timeout_minutes=60
func (h *AnnotationHandler) StartAnnotation(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "video_id")
	if !ok {
		return
	}
	defMinutes := int(h.lock.DefaultDuration() / time.Minute)
	minutes, err := intQuery(c, "timeout_minutes", defMinutes)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_timeout_minutes", err)
		return
	}
	maxMinutes := int(h.lock.MaxDuration() / time.Minute)
	if minutes < 0 || minutes > maxMinutes {
		response.RespondError(c, http.StatusBadRequest, "invalid_timeout_minutes",
			fmt.Errorf("timeout_minutes must be between 0 and %d", maxMinutes))
		return
	}

	res, err := h.lock.Acquire(c.Request.Context(), id, who, time.Duration(minutes)*time.Minute)
	if err != nil {
		respondServiceError(c, h.log, "StartAnnotation", err)
		return
	}
	body := lockResponse{
		Success:     res.Granted,
		VideoID:     res.VideoID,
		LockedBy:    res.Holder,
		LockedAt:    res.AcquiredAt,
		LockedUntil: res.ExpiresAt,
		DownloadURL: res.DownloadURL,
	}
	if !res.Granted {
		body.Message = "video is currently being annotated by another user"
		c.JSON(http.StatusConflict, body)
		return
	}
	body.Message = "video locked for annotation"
	response.RespondOK(c, body)
}

// POST /api/annotations/release/:video_id
func (h *AnnotationHandler) ReleaseAnnotation(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "video_id")
	if !ok {
		return
	}
	if err := h.lock.Release(c.Request.Context(), id, who); err != nil {
		respondServiceError(c, h.log, "ReleaseAnnotation", err)
		return
	}
	response.RespondOK(c, gin.H{"message": "lock released", "video_id": id})
}

type completeRequest struct {
	VideoID         string         `json:"video_id"`
	AnnotationData  string         `json:"annotation_data"`
	FramesAnnotated int            `json:"frames_annotated"`
	DetectionCount  int            `json:"detection_count"`
	SpeciesCounts   map[string]int `json:"species_counts"`
}

// POST /api/annotations/complete
func (h *AnnotationHandler) CompleteAnnotation(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id, err := uuid.Parse(req.VideoID)
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_video_id", fmt.Errorf("video_id must be a UUID"))
		return
	}

	video, err := h.annotations.Complete(c.Request.Context(), services.CompleteInput{
		VideoID:         id,
		Requester:       who,
		Data:            req.AnnotationData,
		FramesAnnotated: req.FramesAnnotated,
		DetectionCount:  req.DetectionCount,
		SpeciesCounts:   req.SpeciesCounts,
	})
	if err != nil {
		respondServiceError(c, h.log, "CompleteAnnotation", err)
		return
	}
	ann, err := h.annotations.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, "CompleteAnnotation", err)
		return
	}
	response.RespondOK(c, annotationPayload(ann, video))
}

// GET /api/annotations/:video_id
func (h *AnnotationHandler) GetAnnotation(c *gin.Context) {
	id, ok := uuidParam(c, "video_id")
	if !ok {
		return
	}
	ann, err := h.annotations.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, "GetAnnotation", err)
		return
	}
	response.RespondOK(c, annotationPayload(ann, nil))
}

// GET /api/annotations/:video_id/data
func (h *AnnotationHandler) GetAnnotationData(c *gin.Context) {
	id, ok := uuidParam(c, "video_id")
	if !ok {
		return
	}
	rc, err := h.annotations.OpenData(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, "GetAnnotationData", err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id.String()+".txt"))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.log.Warn("annotation stream interrupted", "video_id", id, "error", err)
	}
}

// DELETE /api/annotations/:video_id
func (h *AnnotationHandler) DeleteAnnotation(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "video_id")
	if !ok {
		return
	}
	if err := h.annotations.Delete(c.Request.Context(), id, who); err != nil {
		respondServiceError(c, h.log, "DeleteAnnotation", err)
		return
	}
	response.RespondOK(c, gin.H{"message": "annotation deleted", "video_id": id})
}

func annotationPayload(ann *types.Annotation, video *types.Video) gin.H {
	species, err := ann.SpeciesCountMap()
	if err != nil {
		species = map[string]int{}
	}
	out := gin.H{
		"video_id":         ann.VideoID,
		"frames_annotated": ann.FramesAnnotated,
		"detection_count":  ann.DetectionCount,
		"species_counts":   species,
		"storage_path":     ann.StoragePath,
		"created_at":       ann.CreatedAt,
		"updated_at":       ann.UpdatedAt,
	}
	if video != nil {
		out["annotated_by"] = video.AnnotatedBy
		out["annotated_at"] = video.AnnotatedAt
	}
	return out
}
