package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bidmarket/internal/domain"
	"bidmarket/internal/domain/mocks"
	"bidmarket/pkg/logger"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

type recordingRetries struct {
	ids []string
}

func (r *recordingRetries) Enqueue(ctx context.Context, auctionID string) {
	r.ids = append(r.ids, auctionID)
}

func TestOutbox_SealQueuesLastPersistedSnapshot(t *testing.T) {
	fx := newOutbox()
	a := openAuction("a1", 1_000, 50_000)

	fx.seal()
	require.Zero(t, fx.size())

	a.Version = 1
	fx.auctionPersisted(a)
	a.Version = 2
	a.CurrentTopPrice = 2_000
	fx.auctionPersisted(a)
	fx.seal()

	require.Equal(t, 1, fx.size())
	require.Equal(t, effectIndexSync, fx.effects[0].kind)
	require.Equal(t, int64(2), fx.effects[0].snapshot.Version)
	require.Equal(t, int64(2_000), fx.effects[0].snapshot.CurrentTopPrice)

	fx.seal()
	require.Equal(t, 1, fx.size())
}

func TestDispatch_RunsEffectsInQueueOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	history := mocks.NewMockHistorySink(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	index := mocks.NewMockIndexSyncer(ctrl)

	a := openAuction("a1", 1_000, 50_000)
	msg := newNotification(a, "u0", domain.NotifyOutbidByManualBid, 1_100)

	fx := newOutbox()
	fx.recordHistory("u1", a.Category, a.Name)
	fx.notify(msg)
	fx.auctionPersisted(a)
	fx.seal()

	gomock.InOrder(
		history.EXPECT().Upsert(gomock.Any(), "u1", "camera", "Leica M6 a1").Return(nil),
		notifier.EXPECT().Notify(gomock.Any(), msg).Return(nil),
		index.EXPECT().Upsert(gomock.Any(), a.Snapshot()).Return(nil),
	)

	d := NewEffectDispatcher(history, notifier, index, nil, time.Second, logger.NewNop())
	d.Dispatch(context.Background(), fx)
	require.Zero(t, fx.size())
}

func TestDispatch_SurvivesCancelledRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	history := mocks.NewMockHistorySink(ctrl)
	var seen error
	history.EXPECT().Upsert(gomock.Any(), "u1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, bidderID, category, itemName string) error {
			seen = ctx.Err()
			return seen
		})

	fx := newOutbox()
	fx.recordHistory("u1", "camera", "Leica")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retries := &recordingRetries{}
	index := mocks.NewMockIndexSyncer(ctrl)
	d := NewEffectDispatcher(history, mocks.NewMockNotifier(ctrl), index, retries, time.Second, logger.NewNop())
	d.Dispatch(ctx, fx)
	require.NoError(t, seen)
	require.Empty(t, retries.ids)
}

func TestDispatch_FailedIndexSyncIsQueuedForRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	index := mocks.NewMockIndexSyncer(ctrl)

	a := openAuction("a1", 1_000, 50_000)
	fx := newOutbox()
	fx.notify(newNotification(a, "u0", domain.NotifyOutbidByProxy, 1_100))
	fx.auctionPersisted(a)
	fx.seal()

	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("unreachable"))
	index.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errors.New("unreachable"))

	retries := &recordingRetries{}
	d := NewEffectDispatcher(mocks.NewMockHistorySink(ctrl), notifier, index, retries, time.Second, logger.NewNop())
	d.Dispatch(context.Background(), fx)

	require.Equal(t, []string{"a1"}, retries.ids)
}
