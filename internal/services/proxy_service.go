package services

import (
	"context"
	"fmt"

	"bidmarket/internal/domain"
	"bidmarket/pkg/logger"
)

// ProxyBidService maintains the standing auto-bid order of an auction.
type ProxyBidService struct {
	auctionRepo domain.AuctionRepository
	proxyRepo   domain.ProxyBidRepository
	locker      *AuctionLocker
	log         logger.Logger
}

func NewProxyBidService(
	auctionRepo domain.AuctionRepository,
	proxyRepo domain.ProxyBidRepository,
	locker *AuctionLocker,
	log logger.Logger,
) *ProxyBidService {
	return &ProxyBidService{
		auctionRepo: auctionRepo,
		proxyRepo:   proxyRepo,
		locker:      locker,
		log:         log,
	}
}

// Register places or raises bidderID's standing order. Only one bidder may hold
// an order per auction.
func (s *ProxyBidService) Register(ctx context.Context, bidderID, auctionID string, ceilingPrice int64) (*domain.ProxyBidOrder, error) {
	auction, err := loadAuction(ctx, s.auctionRepo, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.SellerID == bidderID {
		return nil, fmt.Errorf("%w: bidder %s owns auction %s", domain.ErrSelfBid, bidderID, auctionID)
	}

	var order *domain.ProxyBidOrder
	err = s.locker.WithLock(ctx, auctionID, func() error {
		auction, err := loadAuction(ctx, s.auctionRepo, auctionID)
		if err != nil {
			return err
		}
		if !auction.IsOpen() {
			return fmt.Errorf("%w: auction %s is %s", domain.ErrNotBiddable, auctionID, auction.State)
		}

		floor := MinimumAcceptable(auction.CurrentTopPrice)
		if ceilingPrice < floor || ceilingPrice > auction.BuyNowPrice {
			return fmt.Errorf("%w: ceiling %d outside [%d, %d]", domain.ErrInvalidCeiling, ceilingPrice, floor, auction.BuyNowPrice)
		}

		existing, err := s.proxyRepo.GetByAuction(ctx, auctionID)
		if err != nil {
			return fmt.Errorf("%w: read proxy order: %w", domain.ErrDependencyFailure, err)
		}
		if existing != nil && existing.BidderID != bidderID {
			return fmt.Errorf("%w: auction %s", domain.ErrProxyOrderExists, auctionID)
		}

		order = &domain.ProxyBidOrder{
			AuctionID:    auctionID,
			BidderID:     bidderID,
			CeilingPrice: ceilingPrice,
		}
		if err := s.proxyRepo.Save(ctx, order); err != nil {
			return fmt.Errorf("%w: save proxy order: %w", domain.ErrDependencyFailure, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Proxy order registered", "auction_id", auctionID, "bidder_id", bidderID, "ceiling", ceilingPrice)
	return order, nil
}

// Cancel withdraws bidderID's standing order.
func (s *ProxyBidService) Cancel(ctx context.Context, bidderID, auctionID string) error {
	return s.locker.WithLock(ctx, auctionID, func() error {
		existing, err := s.proxyRepo.GetByAuction(ctx, auctionID)
		if err != nil {
			return fmt.Errorf("%w: read proxy order: %w", domain.ErrDependencyFailure, err)
		}
		if existing == nil {
			return fmt.Errorf("proxy order for auction %s: %w", auctionID, domain.ErrNotFound)
		}
		if existing.BidderID != bidderID {
			return fmt.Errorf("%w: auction %s", domain.ErrNotProxyOwner, auctionID)
		}
		if err := s.proxyRepo.Delete(ctx, existing); err != nil {
			return fmt.Errorf("%w: delete proxy order: %w", domain.ErrDependencyFailure, err)
		}
		s.log.Info("Proxy order cancelled", "auction_id", auctionID, "bidder_id", bidderID)
		return nil
	})
}

// Get returns the standing order, or nil.
func (s *ProxyBidService) Get(ctx context.Context, auctionID string) (*domain.ProxyBidOrder, error) {
	order, err := s.proxyRepo.GetByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("%w: read proxy order: %w", domain.ErrDependencyFailure, err)
	}
	return order, nil
}
