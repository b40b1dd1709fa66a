package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/oceanml-backend/internal/handoff"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

type HandoffConfig struct {
	Scheme   string
	TokenTTL time.Duration
}

type HandoffLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandoffService mints the desktop deep link for a video. The embedded token
// is short-lived and carries the requester as subject.
type HandoffService interface {
	CreateLink(ctx context.Context, videoID uuid.UUID, requester string) (*HandoffLink, error)
}

type handoffService struct {
	log    *logger.Logger
	videos VideoService
	auth   AuthService
	cfg    HandoffConfig
}

func NewHandoffService(baseLog *logger.Logger, videos VideoService, auth AuthService, cfg HandoffConfig) HandoffService {
	if strings.TrimSpace(cfg.Scheme) == "" {
		cfg.Scheme = handoff.DefaultScheme
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 10 * time.Minute
	}
	return &handoffService{
		log:    baseLog.With("service", "HandoffService"),
		videos: videos,
		auth:   auth,
		cfg:    cfg,
	}
}

func (s *handoffService) CreateLink(ctx context.Context, videoID uuid.UUID, requester string) (*HandoffLink, error) {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return nil, ErrIdentityRequired
	}
	if _, err := s.videos.Get(ctx, videoID); err != nil {
		return nil, err
	}
	token, expiresAt, err := s.auth.MintToken(requester, DesktopAudience, s.cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	link := handoff.Build(s.cfg.Scheme, handoff.ActionAnnotate, videoID.String(), token)
	s.log.Debug("handoff link minted", "video_id", videoID, "actor", requester, "expires_at", expiresAt)
	return &HandoffLink{URL: link, ExpiresAt: expiresAt}, nil
}
