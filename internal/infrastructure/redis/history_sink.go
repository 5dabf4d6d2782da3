package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// RedisHistorySink counts, per bidder, the (category, item) pairs bid on.
type RedisHistorySink struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisHistorySink(client *redis.Client, ttl time.Duration) *RedisHistorySink {
	return &RedisHistorySink{client: client, ttl: ttl}
}

func historyKey(bidderID string) string {
	return fmt.Sprintf("bid_history:%s", bidderID)
}

func historyField(category, itemName string) string {
	return category + "|" + itemName
}

func (r *RedisHistorySink) Upsert(ctx context.Context, bidderID, category, itemName string) error {
	key := historyKey(bidderID)

	pipe := r.client.TxPipeline()
	pipe.HIncrBy(ctx, key, historyField(category, itemName), 1)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed on upsert bid history")
	}
	return nil
}
