package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/yungbote/oceanml-backend/internal/platform/objectstore"
)

const idempotentRetries = 3

// retryIdempotent runs op with bounded exponential backoff. Only use it for
// operations that are safe to repeat.
func retryIdempotent(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 15 * time.Second

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, idempotentRetries), ctx))
}

func isPermanent(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, objectstore.ErrNotFound)
}
