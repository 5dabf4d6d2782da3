package services

import (
	"context"
	"errors"
	"testing"

	"bidmarket/internal/domain"
	"bidmarket/internal/domain/mocks"
	"bidmarket/internal/infrastructure/memory"
	"bidmarket/pkg/logger"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func TestRetryPending_PushesCurrentState(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndexSyncer(ctrl)

	a := openAuction("a1", 9_000, 50_000)
	a.Version = 7
	auctions := memory.NewAuctionRepository(a)
	backlog := memory.NewSyncBacklog()
	ctx := context.Background()

	r := NewIndexRetrier(auctions, index, backlog, "@every 30s", logger.NewNop())
	r.Enqueue(ctx, "a1")
	r.Enqueue(ctx, "a1")
	r.Enqueue(ctx, "gone")

	index.EXPECT().Upsert(gomock.Any(), a.Snapshot()).Return(nil)

	require.Equal(t, 1, r.RetryPending(ctx))
	require.Zero(t, backlog.Len())
}

func TestRetryPending_RequeuesFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockIndexSyncer(ctrl)

	auctions := memory.NewAuctionRepository(openAuction("a1", 9_000, 50_000))
	backlog := memory.NewSyncBacklog()
	ctx := context.Background()

	r := NewIndexRetrier(auctions, index, backlog, "@every 30s", logger.NewNop())
	r.Enqueue(ctx, "a1")

	index.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errors.New("indexer down"))
	require.Zero(t, r.RetryPending(ctx))
	require.Equal(t, 1, backlog.Len())

	index.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
	require.Equal(t, 1, r.RetryPending(ctx))
	require.Zero(t, backlog.Len())
}

func TestRetrier_LeaderGate(t *testing.T) {
	ctrl := gomock.NewController(t)
	leader := mocks.NewMockLeaderElection(ctrl)
	ctx := context.Background()

	r := NewIndexRetrier(memory.NewAuctionRepository(), mocks.NewMockIndexSyncer(ctrl), memory.NewSyncBacklog(),
		"@every 30s", logger.NewNop())
	require.True(t, r.isLeader(ctx))

	r.SetLeaderElection(leader, "bidding-service-2")
	gomock.InOrder(
		leader.EXPECT().IsLeader(gomock.Any(), "bidding-service-2").Return(false, nil),
		leader.EXPECT().IsLeader(gomock.Any(), "bidding-service-2").Return(true, nil),
		leader.EXPECT().IsLeader(gomock.Any(), "bidding-service-2").Return(false, errors.New("redis gone")),
	)
	require.False(t, r.isLeader(ctx))
	require.True(t, r.isLeader(ctx))
	require.False(t, r.isLeader(ctx))
}

func TestRetrier_StartRejectsBadSchedule(t *testing.T) {
	r := NewIndexRetrier(memory.NewAuctionRepository(), nil, memory.NewSyncBacklog(), "every now and then", logger.NewNop())
	require.Error(t, r.Start(context.Background()))
}

var _ IndexRetryQueue = (*IndexRetrier)(nil)
var _ domain.SyncBacklog = (*memory.SyncBacklog)(nil)
