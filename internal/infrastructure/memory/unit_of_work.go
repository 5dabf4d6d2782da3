package memory

import (
	"context"
	"sort"

	"bidmarket/internal/domain"
)

// UnitOfWork stages writes in a change set and applies them to the backing
// repositories only when the work function succeeds.
type UnitOfWork struct {
	auctions *AuctionRepository
	bids     *BidRepository
	proxies  *ProxyBidRepository
}

func NewUnitOfWork(auctions *AuctionRepository, bids *BidRepository, proxies *ProxyBidRepository) *UnitOfWork {
	return &UnitOfWork{
		auctions: auctions,
		bids:     bids,
		proxies:  proxies,
	}
}

func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context, stores domain.Stores) error) error {
	cs := &changeSet{
		base:     u,
		auctions: make(map[string]*domain.Auction),
		proxies:  make(map[string]*proxyChange),
	}

	stores := domain.Stores{
		Auctions: stagedAuctions{cs},
		Bids:     stagedBids{cs},
		Proxies:  stagedProxies{cs},
	}
	if err := fn(ctx, stores); err != nil {
		return err
	}

	cs.apply(ctx)
	return nil
}

type proxyChange struct {
	order   domain.ProxyBidOrder
	deleted bool
}

type changeSet struct {
	base     *UnitOfWork
	auctions map[string]*domain.Auction
	bids     []*domain.Bid
	proxies  map[string]*proxyChange
}

func (cs *changeSet) apply(ctx context.Context) {
	for _, b := range cs.bids {
		cs.base.bids.Save(ctx, b)
	}
	for id, change := range cs.proxies {
		if change.deleted {
			cs.base.proxies.remove(id)
			continue
		}
		cs.base.proxies.Save(ctx, &change.order)
	}
	for _, a := range cs.auctions {
		cs.base.auctions.Save(ctx, a)
	}
}

type stagedAuctions struct{ cs *changeSet }

func (s stagedAuctions) GetByID(ctx context.Context, auctionID string) (*domain.Auction, error) {
	if a, staged := s.cs.auctions[auctionID]; staged {
		return a.Clone(), nil
	}
	return s.cs.base.auctions.GetByID(ctx, auctionID)
}

func (s stagedAuctions) Save(ctx context.Context, auction *domain.Auction) error {
	s.cs.auctions[auction.ID] = auction.Clone()
	return nil
}

type stagedBids struct{ cs *changeSet }

func (s stagedBids) Save(ctx context.Context, bid *domain.Bid) (*domain.Bid, error) {
	stored := *bid
	s.cs.bids = append(s.cs.bids, &stored)
	saved := stored
	return &saved, nil
}

func (s stagedBids) TopByAuctionDesc(ctx context.Context, auctionID string) (*domain.Bid, error) {
	bids, err := s.ListByAuctionDesc(ctx, auctionID)
	if err != nil || len(bids) == 0 {
		return nil, err
	}
	return bids[0], nil
}

func (s stagedBids) ListByAuctionDesc(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	bids, err := s.cs.base.bids.ListByAuctionDesc(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	for _, b := range s.cs.bids {
		if b.AuctionID == auctionID {
			c := *b
			bids = append(bids, &c)
		}
	}
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].Price > bids[j].Price
	})
	return bids, nil
}

type stagedProxies struct{ cs *changeSet }

func (s stagedProxies) GetByAuction(ctx context.Context, auctionID string) (*domain.ProxyBidOrder, error) {
	if change, staged := s.cs.proxies[auctionID]; staged {
		if change.deleted {
			return nil, nil
		}
		order := change.order
		return &order, nil
	}
	return s.cs.base.proxies.GetByAuction(ctx, auctionID)
}

func (s stagedProxies) Save(ctx context.Context, order *domain.ProxyBidOrder) error {
	s.cs.proxies[order.AuctionID] = &proxyChange{order: *order}
	return nil
}

func (s stagedProxies) Delete(ctx context.Context, order *domain.ProxyBidOrder) error {
	current, err := s.GetByAuction(ctx, order.AuctionID)
	if err != nil {
		return err
	}
	if current != nil && current.BidderID == order.BidderID {
		s.cs.proxies[order.AuctionID] = &proxyChange{order: *current, deleted: true}
	}
	return nil
}
