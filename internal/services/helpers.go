package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/yungbote/oceanml-backend/internal/data/repos"
	types "github.com/yungbote/oceanml-backend/internal/domain"
	"github.com/yungbote/oceanml-backend/internal/platform/dbctx"
)

// getVideo loads a video, retrying transient read failures. A missing video
// is ErrNotFound.
func getVideo(ctx context.Context, videos repos.VideoRepo, id uuid.UUID) (*types.Video, error) {
	if id == uuid.Nil {
		return nil, ErrNotFound
	}
	var video *types.Video
	err := retryIdempotent(ctx, func() error {
		var err error
		video, err = videos.GetByID(dbctx.New(ctx), id)
		return err
	})
	if err != nil {
		return nil, storeErr("load video", err)
	}
	if video == nil {
		return nil, ErrNotFound
	}
	return video, nil
}

func isClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrIdentityRequired) ||
		errors.Is(err, ErrNotLeaseHolder) ||
		errors.Is(err, ErrTooLarge)
}
