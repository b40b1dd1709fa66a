package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/oceanml-backend/internal/platform/keylock"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

// releaseScript deletes the key only while it still carries our token, so a
// holder whose TTL lapsed cannot free somebody else's lock.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var errLockBusy = errors.New("redis mutex busy")

// Mutex is a keylock.Locker shared by every API replica.
type Mutex struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ keylock.Locker = (*Mutex)(nil)

func NewMutex(log *logger.Logger, rdb goredis.UniversalClient, ttl time.Duration) *Mutex {
	if ttl <= 0 {
		ttl = 120 * time.Second
	}
	return &Mutex{
		log:    log.With("service", "RedisMutex"),
		rdb:    rdb,
		prefix: "oceanml:mutex:",
		ttl:    ttl,
	}
}

func (m *Mutex) Lock(ctx context.Context, key string) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	redisKey := m.prefix + key
	token := uuid.NewString()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 25 * time.Millisecond
	bo.MaxInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 0

	op := func() error {
		ok, err := m.rdb.SetNX(ctx, redisKey, token, m.ttl).Result()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("redis setnx %s: %w", redisKey, err))
		}
		if !ok {
			return errLockBusy
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, errLockBusy) {
			return nil, ctxErr
		}
		return nil, err
	}

	return func() {
		// The caller's ctx may already be cancelled; release must still run.
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(relCtx, m.rdb, []string{redisKey}, token).Err(); err != nil {
			m.log.Warn("redis mutex release failed", "key", key, "error", err)
		}
	}, nil
}
