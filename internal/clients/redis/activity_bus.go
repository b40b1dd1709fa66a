package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/oceanml-backend/internal/domain"
)

// ActivityBus fans activity records out over Redis pub/sub for dashboards
// and other replicas.
type ActivityBus struct {
	rdb     goredis.UniversalClient
	channel string
}

func NewActivityBus(rdb goredis.UniversalClient, channel string) *ActivityBus {
	if channel == "" {
		channel = "oceanml:activity"
	}
	return &ActivityBus{rdb: rdb, channel: channel}
}

func (b *ActivityBus) Publish(ctx context.Context, entry *domain.ActivityLog) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis activity bus not initialized")
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Subscribe delivers decoded entries until ctx is done. Undecodable payloads
// are skipped.
func (b *ActivityBus) Subscribe(ctx context.Context, onEntry func(*domain.ActivityLog)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis activity bus not initialized")
	}
	if onEntry == nil {
		return fmt.Errorf("onEntry callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var entry domain.ActivityLog
				if err := json.Unmarshal([]byte(m.Payload), &entry); err != nil {
					continue
				}
				onEntry(&entry)
			}
		}
	}()
	return nil
}
