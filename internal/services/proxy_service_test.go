package services

import (
	"context"
	"testing"

	"bidmarket/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestProxyRegister(t *testing.T) {
	f := newFixture(t, openAuction("a1", 18_000, 50_000))
	ctx := context.Background()

	order, err := f.proxySvc.Register(ctx, "p1", "a1", 20_000)
	require.NoError(t, err)
	require.Equal(t, &domain.ProxyBidOrder{AuctionID: "a1", BidderID: "p1", CeilingPrice: 20_000}, order)

	// The owner may raise its own ceiling.
	_, err = f.proxySvc.Register(ctx, "p1", "a1", 30_000)
	require.NoError(t, err)

	stored, err := f.proxySvc.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, int64(30_000), stored.CeilingPrice)

	_, err = f.proxySvc.Register(ctx, "p2", "a1", 40_000)
	require.ErrorIs(t, err, domain.ErrProxyOrderExists)
	require.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestProxyRegister_Rejections(t *testing.T) {
	closed := openAuction("closed", 1_000, 50_000)
	closed.State = domain.AuctionClosed
	f := newFixture(t, openAuction("a1", 18_000, 50_000), closed)
	ctx := context.Background()

	tests := []struct {
		name      string
		bidderID  string
		auctionID string
		ceiling   int64
		expected  error
	}{
		{"missing auction", "p1", "missing", 20_000, domain.ErrNotFound},
		{"seller", "seller", "a1", 20_000, domain.ErrSelfBid},
		{"closed auction", "p1", "closed", 20_000, domain.ErrNotBiddable},
		{"below minimum raise", "p1", "a1", 18_999, domain.ErrInvalidCeiling},
		{"above buy-now", "p1", "a1", 50_001, domain.ErrInvalidCeiling},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			order, err := f.proxySvc.Register(ctx, tc.bidderID, tc.auctionID, tc.ceiling)
			require.Nil(t, order)
			require.ErrorIs(t, err, tc.expected)
		})
	}

	order, err := f.proxySvc.Get(ctx, "a1")
	require.NoError(t, err)
	require.Nil(t, order)
}

func TestProxyCancel(t *testing.T) {
	f := newFixture(t, openAuction("a1", 18_000, 50_000))
	ctx := context.Background()

	require.ErrorIs(t, f.proxySvc.Cancel(ctx, "p1", "a1"), domain.ErrNotFound)

	_, err := f.proxySvc.Register(ctx, "p1", "a1", 25_000)
	require.NoError(t, err)

	require.ErrorIs(t, f.proxySvc.Cancel(ctx, "p2", "a1"), domain.ErrNotProxyOwner)
	require.NoError(t, f.proxySvc.Cancel(ctx, "p1", "a1"))

	order, err := f.proxySvc.Get(ctx, "a1")
	require.NoError(t, err)
	require.Nil(t, order)
}

func TestProxyRegister_ThenManualBidCascades(t *testing.T) {
	f := newFixture(t, openAuction("a1", 18_000, 50_000))
	ctx := context.Background()

	_, err := f.proxySvc.Register(ctx, "p1", "a1", 20_000)
	require.NoError(t, err)

	_, err = f.bidSvc.PlaceBid(ctx, "m1", "a1", 19_000)
	require.NoError(t, err)

	top, err := f.bidSvc.TopBid(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "p1", top.BidderID)
	require.Equal(t, int64(20_000), top.Price)

	// m1 outbids the ceiling; the order is exhausted.
	_, err = f.bidSvc.PlaceBid(ctx, "m1", "a1", 21_000)
	require.NoError(t, err)

	order, err := f.proxySvc.Get(ctx, "a1")
	require.NoError(t, err)
	require.Nil(t, order)

	var kinds []domain.NotificationKind
	for _, n := range f.notifier.all() {
		kinds = append(kinds, n.Kind)
	}
	require.Equal(t, []domain.NotificationKind{
		domain.NotifyOutbidByProxy,
		domain.NotifyOutbidByManualBid,
		domain.NotifyProxyExhausted,
	}, kinds)
}
