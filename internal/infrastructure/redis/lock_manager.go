package redis

import (
	"context"
	"time"

	"bidmarket/internal/domain"
	"bidmarket/pkg/utils"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// Deletes the key only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

const defaultRetryInterval = 50 * time.Millisecond

// RedisLockManager implements domain.LockManager with SET NX PX. The lease is
// the key TTL and is never renewed.
type RedisLockManager struct {
	client        *redis.Client
	retryInterval time.Duration
}

func NewRedisLockManager(client *redis.Client, retryInterval time.Duration) *RedisLockManager {
	if retryInterval <= 0 {
		retryInterval = defaultRetryInterval
	}
	return &RedisLockManager{
		client:        client,
		retryInterval: retryInterval,
	}
}

func (m *RedisLockManager) TryAcquire(ctx context.Context, key string, wait, lease time.Duration) (domain.Lock, bool, error) {
	token := utils.GenerateID("lock")
	deadline := time.Now().Add(wait)

	for {
		ok, err := m.client.SetNX(ctx, key, token, lease).Result()
		if err != nil {
			return nil, false, errors.Wrap(err, "failed on set lock key")
		}
		if ok {
			return &redisLock{client: m.client, key: key, token: token}, true, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false, nil
		}

		sleep := m.retryInterval
		if remaining < sleep {
			sleep = remaining
		}
		timer := time.NewTimer(sleep)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, false, ctx.Err()
		}
	}
}

type redisLock struct {
	client *redis.Client
	key    string
	token  string
}

func (l *redisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return errors.Wrap(err, "failed on release lock key")
	}
	return nil
}
