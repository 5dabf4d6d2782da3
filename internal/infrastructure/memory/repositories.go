package memory

import (
	"context"
	"sort"
	"sync"

	"bidmarket/internal/domain"
)

type AuctionRepository struct {
	auctions map[string]*domain.Auction
	mutex    sync.RWMutex
}

func NewAuctionRepository(seed ...*domain.Auction) *AuctionRepository {
	r := &AuctionRepository{auctions: make(map[string]*domain.Auction)}
	for _, a := range seed {
		r.auctions[a.ID] = a.Clone()
	}
	return r
}

func (r *AuctionRepository) GetByID(ctx context.Context, auctionID string) (*domain.Auction, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	auction, exists := r.auctions[auctionID]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return auction.Clone(), nil
}

func (r *AuctionRepository) Save(ctx context.Context, auction *domain.Auction) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.auctions[auction.ID] = auction.Clone()
	return nil
}

type BidRepository struct {
	bids  map[string][]*domain.Bid // auctionID -> bids in insertion order
	mutex sync.RWMutex
}

func NewBidRepository() *BidRepository {
	return &BidRepository{bids: make(map[string][]*domain.Bid)}
}

func (r *BidRepository) Save(ctx context.Context, bid *domain.Bid) (*domain.Bid, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored := *bid
	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], &stored)
	saved := stored
	return &saved, nil
}

func (r *BidRepository) TopByAuctionDesc(ctx context.Context, auctionID string) (*domain.Bid, error) {
	bids, _ := r.ListByAuctionDesc(ctx, auctionID)
	if len(bids) == 0 {
		return nil, nil
	}
	return bids[0], nil
}

// ListByAuctionDesc orders by price descending; equal prices keep commit order.
func (r *BidRepository) ListByAuctionDesc(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored := r.bids[auctionID]
	bids := make([]*domain.Bid, 0, len(stored))
	for _, b := range stored {
		c := *b
		bids = append(bids, &c)
	}
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].Price > bids[j].Price
	})
	return bids, nil
}

type ProxyBidRepository struct {
	orders map[string]domain.ProxyBidOrder
	mutex  sync.RWMutex
}

func NewProxyBidRepository() *ProxyBidRepository {
	return &ProxyBidRepository{orders: make(map[string]domain.ProxyBidOrder)}
}

func (r *ProxyBidRepository) GetByAuction(ctx context.Context, auctionID string) (*domain.ProxyBidOrder, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	order, exists := r.orders[auctionID]
	if !exists {
		return nil, nil
	}
	return &order, nil
}

func (r *ProxyBidRepository) Save(ctx context.Context, order *domain.ProxyBidOrder) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.orders[order.AuctionID] = *order
	return nil
}

// Delete removes the standing order only while it still belongs to order.BidderID.
func (r *ProxyBidRepository) Delete(ctx context.Context, order *domain.ProxyBidOrder) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if current, exists := r.orders[order.AuctionID]; exists && current.BidderID == order.BidderID {
		delete(r.orders, order.AuctionID)
	}
	return nil
}

func (r *ProxyBidRepository) remove(auctionID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.orders, auctionID)
}

type SyncBacklog struct {
	pending map[string]struct{}
	mutex   sync.Mutex
}

func NewSyncBacklog() *SyncBacklog {
	return &SyncBacklog{pending: make(map[string]struct{})}
}

func (b *SyncBacklog) Add(ctx context.Context, auctionID string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.pending[auctionID] = struct{}{}
	return nil
}

func (b *SyncBacklog) Pop(ctx context.Context, max int) ([]string, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ids := make([]string, 0, min(max, len(b.pending)))
	for id := range b.pending {
		if len(ids) == max {
			break
		}
		ids = append(ids, id)
		delete(b.pending, id)
	}
	return ids, nil
}

func (b *SyncBacklog) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return len(b.pending)
}
