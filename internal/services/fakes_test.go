package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bidmarket/internal/domain"
	"bidmarket/internal/infrastructure/memory"
	"bidmarket/pkg/logger"
)

type recordingNotifier struct {
	mutex sync.Mutex
	sent  []*domain.Notification
	err   error
}

func (n *recordingNotifier) Notify(ctx context.Context, msg *domain.Notification) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) all() []*domain.Notification {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return append([]*domain.Notification(nil), n.sent...)
}

type recordingHistory struct {
	mutex   sync.Mutex
	entries []historyEntry
	err     error
}

func (h *recordingHistory) Upsert(ctx context.Context, bidderID, category, itemName string) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.entries = append(h.entries, historyEntry{BidderID: bidderID, Category: category, ItemName: itemName})
	return h.err
}

func (h *recordingHistory) bidders() []string {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	var ids []string
	for _, e := range h.entries {
		ids = append(ids, e.BidderID)
	}
	return ids
}

type recordingIndex struct {
	mutex     sync.Mutex
	snapshots []domain.AuctionSnapshot
	err       error
}

func (i *recordingIndex) Upsert(ctx context.Context, snapshot domain.AuctionSnapshot) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.snapshots = append(i.snapshots, snapshot)
	return i.err
}

func (i *recordingIndex) last() (domain.AuctionSnapshot, bool) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if len(i.snapshots) == 0 {
		return domain.AuctionSnapshot{}, false
	}
	return i.snapshots[len(i.snapshots)-1], true
}

func (i *recordingIndex) count() int {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return len(i.snapshots)
}

// directUnitOfWork writes straight through to stores without isolation.
type directUnitOfWork struct {
	stores domain.Stores
}

func (u directUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context, stores domain.Stores) error) error {
	return fn(ctx, u.stores)
}

// flakyUnitOfWork fails one auction save on request.
type flakyUnitOfWork struct {
	domain.UnitOfWork
	mutex     sync.Mutex
	failAfter int // successful saves left before the failing one; -1 when disarmed
}

// failAuctionSave makes the n-th auction save from now on fail once.
func (u *flakyUnitOfWork) failAuctionSave(n int) {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	u.failAfter = n - 1
}

func (u *flakyUnitOfWork) nextSaveFails() bool {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	switch {
	case u.failAfter < 0:
		return false
	case u.failAfter == 0:
		u.failAfter = -1
		return true
	default:
		u.failAfter--
		return false
	}
}

func (u *flakyUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context, stores domain.Stores) error) error {
	return u.UnitOfWork.RunInTx(ctx, func(ctx context.Context, stores domain.Stores) error {
		stores.Auctions = flakyAuctions{AuctionRepository: stores.Auctions, uow: u}
		return fn(ctx, stores)
	})
}

type flakyAuctions struct {
	domain.AuctionRepository
	uow *flakyUnitOfWork
}

func (a flakyAuctions) Save(ctx context.Context, auction *domain.Auction) error {
	if a.uow.nextSaveFails() {
		return errors.New("lock wait timeout exceeded")
	}
	return a.AuctionRepository.Save(ctx, auction)
}

type fixture struct {
	auctions *memory.AuctionRepository
	bids     *memory.BidRepository
	proxies  *memory.ProxyBidRepository
	uow      *flakyUnitOfWork
	notifier *recordingNotifier
	history  *recordingHistory
	index    *recordingIndex
	backlog  *memory.SyncBacklog
	locker   *AuctionLocker
	bidSvc   *BidService
	proxySvc *ProxyBidService
}

var testLockSettings = LockSettings{
	KeyPrefix: "product_bid:",
	WaitTime:  5 * time.Second,
	LeaseTime: 10 * time.Second,
}

func newFixture(t *testing.T, auctions ...*domain.Auction) *fixture {
	t.Helper()

	log := logger.NewNop()
	f := &fixture{
		auctions: memory.NewAuctionRepository(auctions...),
		bids:     memory.NewBidRepository(),
		proxies:  memory.NewProxyBidRepository(),
		notifier: &recordingNotifier{},
		history:  &recordingHistory{},
		index:    &recordingIndex{},
		backlog:  memory.NewSyncBacklog(),
	}
	f.uow = &flakyUnitOfWork{
		UnitOfWork: memory.NewUnitOfWork(f.auctions, f.bids, f.proxies),
		failAfter:  -1,
	}

	retrier := NewIndexRetrier(f.auctions, f.index, f.backlog, "@every 1m", log)
	dispatcher := NewEffectDispatcher(f.history, f.notifier, f.index, retrier, time.Second, log)
	f.locker = NewAuctionLocker(memory.NewLockManager(), testLockSettings, log)
	f.bidSvc = NewBidService(f.auctions, f.bids, f.uow, f.locker, dispatcher, log)
	f.proxySvc = NewProxyBidService(f.auctions, f.proxies, f.locker, log)
	return f
}

func (f *fixture) auction(t *testing.T, id string) *domain.Auction {
	t.Helper()
	a, err := f.auctions.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load auction %s: %v", id, err)
	}
	return a
}

func (f *fixture) ledger(t *testing.T, id string) []*domain.Bid {
	t.Helper()
	bids, err := f.bids.ListByAuctionDesc(context.Background(), id)
	if err != nil {
		t.Fatalf("list bids %s: %v", id, err)
	}
	return bids
}

func openAuction(id string, top, buyNow int64) *domain.Auction {
	return &domain.Auction{
		ID:              id,
		SellerID:        "seller",
		Category:        "camera",
		Name:            "Leica M6 " + id,
		ImageURLs:       []string{"https://img.example/" + id + "/1.jpg", "https://img.example/" + id + "/2.jpg"},
		State:           domain.AuctionOpen,
		CurrentTopPrice: top,
		BuyNowPrice:     buyNow,
	}
}
