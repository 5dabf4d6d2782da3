package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// RedisSyncBacklog is a set shared by every instance, so the elected leader
// can drain failures that happened anywhere.
type RedisSyncBacklog struct {
	client *redis.Client
	key    string
}

func NewRedisSyncBacklog(client *redis.Client, key string) *RedisSyncBacklog {
	return &RedisSyncBacklog{client: client, key: key}
}

func (r *RedisSyncBacklog) Add(ctx context.Context, auctionID string) error {
	if err := r.client.SAdd(ctx, r.key, auctionID).Err(); err != nil {
		return errors.Wrap(err, "failed on add index retry")
	}
	return nil
}

func (r *RedisSyncBacklog) Pop(ctx context.Context, max int) ([]string, error) {
	ids, err := r.client.SPopN(ctx, r.key, int64(max)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed on pop index retries")
	}
	return ids, nil
}
