package redis

import (
	"context"
	"encoding/json"

	"bidmarket/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// RedisNotifier publishes push alarm requests for the delivery service.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (r *RedisNotifier) Notify(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "failed on marshal notification")
	}

	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return errors.Wrap(err, "failed on publish notification")
	}
	return nil
}
