package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/oceanml-backend/internal/domain"
	"github.com/yungbote/oceanml-backend/internal/http/response"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/services"
)

type VideoHandler struct {
	log      *logger.Logger
	videos   services.VideoService
	activity services.ActivityService
	handoff  services.HandoffService
}

func NewVideoHandler(
	log *logger.Logger,
	videos services.VideoService,
	activity services.ActivityService,
	handoff services.HandoffService,
) *VideoHandler {
	return &VideoHandler{
		log:      log.With("handler", "VideoHandler"),
		videos:   videos,
		activity: activity,
		handoff:  handoff,
	}
}

type videoView struct {
	*types.Video
	DownloadURL string `json:"download_url,omitempty"`
}

func (h *VideoHandler) view(v *types.Video) videoView {
	return videoView{Video: v, DownloadURL: h.videos.DownloadURL(v)}
}

// GET /api/videos?limit=&offset=&annotated=
func (h *VideoHandler) ListVideos(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_offset", err)
		return
	}
	in := services.ListVideosInput{Limit: limit, Offset: offset}
	if raw := strings.TrimSpace(c.Query("annotated")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_annotated", fmt.Errorf("annotated must be true or false"))
			return
		}
		in.Annotated = &b
	}

	page, err := h.videos.List(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, h.log, "ListVideos", err)
		return
	}
	views := make([]videoView, 0, len(page.Videos))
	for _, v := range page.Videos {
		views = append(views, h.view(v))
	}
	response.RespondOK(c, gin.H{
		"videos": views,
		"total":  page.Total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GET /api/videos/:id
func (h *VideoHandler) GetVideo(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	v, err := h.videos.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, "GetVideo", err)
		return
	}
	response.RespondOK(c, h.view(v))
}

// POST /api/videos (multipart "file")
func (h *VideoHandler) UploadVideo(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", fmt.Errorf("multipart field \"file\" is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()

	v, err := h.videos.Upload(c.Request.Context(), services.UploadVideoInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
		Uploader:    who,
	})
	if err != nil {
		respondServiceError(c, h.log, "UploadVideo", err)
		return
	}
	response.RespondCreated(c, h.view(v))
}

type updateVideoRequest struct {
	Filename *string `json:"filename"`
}

// PUT /api/videos/:id
func (h *VideoHandler) UpdateVideo(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	v, err := h.videos.Update(c.Request.Context(), id, services.UpdateVideoInput{Filename: req.Filename}, who)
	if err != nil {
		respondServiceError(c, h.log, "UpdateVideo", err)
		return
	}
	response.RespondOK(c, h.view(v))
}

// DELETE /api/videos/:id
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.videos.Delete(c.Request.Context(), id, who); err != nil {
		respondServiceError(c, h.log, "DeleteVideo", err)
		return
	}
	response.RespondOK(c, gin.H{"message": "video deleted", "video_id": id})
}

// GET /api/videos/:id/activity
func (h *VideoHandler) ListActivity(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
		return
	}
	rows, err := h.activity.ListForResource(c.Request.Context(), types.ResourceVideo, id.String(), limit)
	if err != nil {
		respondServiceError(c, h.log, "ListActivity", err)
		return
	}
	if rows == nil {
		rows = []*types.ActivityLog{}
	}
	response.RespondOK(c, gin.H{"activity": rows})
}

// GET /api/videos/:id/handoff
func (h *VideoHandler) GetHandoffLink(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	link, err := h.handoff.CreateLink(c.Request.Context(), id, who)
	if err != nil {
		respondServiceError(c, h.log, "GetHandoffLink", err)
		return
	}
	response.RespondOK(c, link)
}
