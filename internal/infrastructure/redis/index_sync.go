package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"bidmarket/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// Stores the snapshot unless a newer version is already there, then publishes
// it. Returns 1 when written, 0 when stale.
var upsertSnapshotScript = redis.NewScript(`
	local stored = redis.call('HGET', KEYS[1], 'version')
	if stored ~= false and tonumber(stored) > tonumber(ARGV[1]) then
		return 0
	end

	redis.call('HSET', KEYS[1], 'version', ARGV[1], 'doc', ARGV[2])
	redis.call('PUBLISH', ARGV[3], ARGV[2])
	return 1
`)

// RedisIndexSyncer keeps the search document of each auction in a hash and
// announces every accepted change on a channel consumed by the indexer.
type RedisIndexSyncer struct {
	client    *redis.Client
	keyPrefix string
	channel   string
}

func NewRedisIndexSyncer(client *redis.Client, keyPrefix, channel string) *RedisIndexSyncer {
	return &RedisIndexSyncer{
		client:    client,
		keyPrefix: keyPrefix,
		channel:   channel,
	}
}

func (r *RedisIndexSyncer) key(auctionID string) string {
	return fmt.Sprintf("%s%s", r.keyPrefix, auctionID)
}

func (r *RedisIndexSyncer) Upsert(ctx context.Context, snapshot domain.AuctionSnapshot) error {
	doc, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "failed on marshal auction snapshot")
	}

	err = upsertSnapshotScript.Run(ctx, r.client, []string{r.key(snapshot.ID)},
		snapshot.Version, string(doc), r.channel).Err()
	if err != nil {
		return errors.Wrap(err, "failed on upsert auction snapshot")
	}
	return nil
}

// Get returns the stored document, or nil when the auction was never synced.
func (r *RedisIndexSyncer) Get(ctx context.Context, auctionID string) (*domain.AuctionSnapshot, error) {
	doc, err := r.client.HGet(ctx, r.key(auctionID), "doc").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed on get auction snapshot")
	}

	var snapshot domain.AuctionSnapshot
	if err := json.Unmarshal([]byte(doc), &snapshot); err != nil {
		return nil, errors.Wrap(err, "failed on unmarshal auction snapshot")
	}
	return &snapshot, nil
}
