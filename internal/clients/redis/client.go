package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/oceanml-backend/internal/platform/envutil"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

func ConfigFromEnv() Config {
	return Config{
		Addr:     envutil.String("REDIS_ADDR", ""),
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
		Channel:  envutil.String("REDIS_CHANNEL", "oceanml:activity"),
	}
}

func (c Config) Enabled() bool { return c.Addr != "" }

// NewClient dials Redis and pings it so a bad address fails at startup.
func NewClient(cfg Config) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
