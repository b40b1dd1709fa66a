package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/oceanml-backend/internal/clients/redis"
	"github.com/yungbote/oceanml-backend/internal/platform/keylock"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/platform/objectstore"
	"github.com/yungbote/oceanml-backend/internal/services"
)

type Clients struct {
	Redis       *goredis.Client
	ActivityBus *redis.ActivityBus
	Store       objectstore.Store
	VideoLocks  keylock.Locker
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	redisCfg := redis.ConfigFromEnv()
	if redisCfg.Enabled() {
		rdb, err := redis.NewClient(redisCfg)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
		out.ActivityBus = redis.NewActivityBus(rdb, redisCfg.Channel)
		out.VideoLocks = redis.NewMutex(log, rdb, cfg.VideoMutexTTL)
		log.Info("Redis enabled", "addr", redisCfg.Addr, "channel", redisCfg.Channel)
	} else {
		out.VideoLocks = keylock.NewLocal()
	}

	// Object storage
	store, err := resolveObjectStore(ctx, log, cfg, objectstore.BucketsFromEnv())
	if err != nil {
		out.Close()
		return Clients{}, err
	}
	out.Store = store
	return out, nil
}

// activityPublisher returns nil when no bus is configured so the activity
// service skips publishing.
func (c Clients) activityPublisher() services.ActivityPublisher {
	if c.ActivityBus == nil {
		return nil
	}
	return c.ActivityBus
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
