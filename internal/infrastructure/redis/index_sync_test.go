package redis

import (
	"context"
	"testing"
	"time"

	"bidmarket/internal/domain"

	"github.com/stretchr/testify/require"
)

func snapshot(version, price int64) domain.AuctionSnapshot {
	return domain.AuctionSnapshot{
		ID:              "a1",
		SellerID:        "s1",
		Name:            "Leica M6",
		Category:        "camera",
		State:           "open",
		CurrentTopPrice: price,
		BuyNowPrice:     50_000,
		Version:         version,
	}
}

func TestRedisIndexSyncer_KeepsNewestVersion(t *testing.T) {
	_, client := newTestClient(t)
	syncer := NewRedisIndexSyncer(client, "search:auction:", "auction_index")
	ctx := context.Background()

	missing, err := syncer.Get(ctx, "a1")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, syncer.Upsert(ctx, snapshot(2, 9_200)))
	require.NoError(t, syncer.Upsert(ctx, snapshot(1, 9_100)))

	stored, err := syncer.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, snapshot(2, 9_200), *stored)

	require.NoError(t, syncer.Upsert(ctx, snapshot(3, 10_000)))
	stored, err = syncer.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, int64(10_000), stored.CurrentTopPrice)
}

func TestRedisIndexSyncer_PublishesAcceptedChanges(t *testing.T) {
	_, client := newTestClient(t)
	sub := subscribe(t, client, "auction_index")
	syncer := NewRedisIndexSyncer(client, "search:auction:", "auction_index")
	ctx := context.Background()

	require.NoError(t, syncer.Upsert(ctx, snapshot(5, 9_200)))

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)
	require.Contains(t, msg.Payload, `"version":5`)
}
