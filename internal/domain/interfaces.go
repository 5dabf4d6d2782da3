//go:generate mockgen -source=interfaces.go -destination=mocks/mock_domain.go -package=mocks

package domain

import (
	"context"
	"time"
)

// Repository interfaces
type AuctionRepository interface {
	// GetByID returns ErrNotFound when the auction does not exist.
	GetByID(ctx context.Context, auctionID string) (*Auction, error)
	Save(ctx context.Context, auction *Auction) error
}

type BidRepository interface {
	Save(ctx context.Context, bid *Bid) (*Bid, error)
	// TopByAuctionDesc returns nil, nil when the auction has no bids.
	TopByAuctionDesc(ctx context.Context, auctionID string) (*Bid, error)
	ListByAuctionDesc(ctx context.Context, auctionID string) ([]*Bid, error)
}

type ProxyBidRepository interface {
	// GetByAuction returns nil, nil when no order is standing.
	GetByAuction(ctx context.Context, auctionID string) (*ProxyBidOrder, error)
	Save(ctx context.Context, order *ProxyBidOrder) error
	Delete(ctx context.Context, order *ProxyBidOrder) error
}

// Stores is the repository set bound to one unit of work.
type Stores struct {
	Auctions AuctionRepository
	Bids     BidRepository
	Proxies  ProxyBidRepository
}

// UnitOfWork runs fn against stores whose writes commit together when fn
// returns nil and are discarded when it returns an error.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// Lock interfaces
type Lock interface {
	Release(ctx context.Context) error
}

type LockManager interface {
	// TryAcquire blocks up to wait. held is false when the lock could not be taken
	// in time. A held lock expires on its own after lease.
	TryAcquire(ctx context.Context, key string, wait, lease time.Duration) (lock Lock, held bool, err error)
}

// Side effect sinks
type HistorySink interface {
	Upsert(ctx context.Context, bidderID, category, itemName string) error
}

type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}

type IndexSyncer interface {
	Upsert(ctx context.Context, snapshot AuctionSnapshot) error
}

// SyncBacklog holds ids of auctions waiting for an index re-sync.
type SyncBacklog interface {
	Add(ctx context.Context, auctionID string) error
	// Pop removes and returns up to max ids.
	Pop(ctx context.Context, max int) ([]string, error)
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}
