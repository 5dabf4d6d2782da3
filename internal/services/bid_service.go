package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bidmarket/internal/domain"
	"bidmarket/pkg/logger"
	"bidmarket/pkg/utils"
)

type BidService struct {
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidRepository
	uow         domain.UnitOfWork
	locker      *AuctionLocker
	dispatcher  *EffectDispatcher
	log         logger.Logger
}

func NewBidService(
	auctionRepo domain.AuctionRepository,
	bidRepo domain.BidRepository,
	uow domain.UnitOfWork,
	locker *AuctionLocker,
	dispatcher *EffectDispatcher,
	log logger.Logger,
) *BidService {
	return &BidService{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		uow:         uow,
		locker:      locker,
		dispatcher:  dispatcher,
		log:         log,
	}
}

// PlaceBid admits a manual bid and settles buy-now or cascades the standing
// proxy order. It returns the manual bid; a proxy counter-bid is only visible
// through the ledger.
func (s *BidService) PlaceBid(ctx context.Context, bidderID, auctionID string, offerPrice int64) (*domain.Bid, error) {
	s.log.Info("Placing bid", "auction_id", auctionID, "bidder_id", bidderID, "offer", offerPrice)

	auction, err := loadAuction(ctx, s.auctionRepo, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.SellerID == bidderID {
		return nil, fmt.Errorf("%w: bidder %s owns auction %s", domain.ErrSelfBid, bidderID, auctionID)
	}

	fx := newOutbox()
	var placed *domain.Bid

	err = s.locker.WithLock(ctx, auctionID, func() error {
		var settleErr error
		txErr := s.uow.RunInTx(ctx, func(ctx context.Context, st domain.Stores) error {
			placed, settleErr = s.settle(ctx, st, fx, bidderID, auctionID, offerPrice)
			return settleErr
		})
		if settleErr != nil {
			return settleErr
		}
		if txErr != nil {
			return fmt.Errorf("%w: commit bid: %w", domain.ErrDependencyFailure, txErr)
		}
		fx.seal()
		return nil
	})
	if err != nil {
		s.logRejection(auctionID, bidderID, offerPrice, err)
		return nil, err
	}

	// Only a committed attempt has effects to deliver.
	s.dispatcher.Dispatch(ctx, fx)
	return placed, nil
}

// settle is the critical section. The caller holds the auction lock and st
// commits as one unit.
func (s *BidService) settle(ctx context.Context, st domain.Stores, fx *outbox, bidderID, auctionID string, offerPrice int64) (*domain.Bid, error) {
	// Re-read under the lock; the pre-lock copy may be stale.
	auction, err := loadAuction(ctx, st.Auctions, auctionID)
	if err != nil {
		return nil, err
	}
	if !auction.IsOpen() {
		return nil, fmt.Errorf("%w: auction %s is %s", domain.ErrNotBiddable, auctionID, auction.State)
	}

	previousTop, err := st.Bids.TopByAuctionDesc(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("%w: read top bid: %w", domain.ErrDependencyFailure, err)
	}

	// The ledger top bounds the price even if the auction row lags behind it.
	current := auction.CurrentTopPrice
	if previousTop != nil {
		current = max(current, previousTop.Price)
	}
	required := MinimumAcceptable(current)
	if offerPrice < required {
		return nil, fmt.Errorf("%w: offered %d, required %d", domain.ErrInsufficientPrice, offerPrice, required)
	}

	manual, err := s.commitBid(ctx, st, auctionID, bidderID, min(offerPrice, auction.BuyNowPrice))
	if err != nil {
		return nil, err
	}
	fx.recordHistory(bidderID, auction.Category, auction.Name)
	auction.CurrentTopPrice = manual.Price

	if previousTop != nil {
		fx.notify(newNotification(auction, previousTop.BidderID, domain.NotifyOutbidByManualBid, manual.Price))
	}

	// Price is clamped to the buy-now cap above, so equality is the only way to reach it.
	if manual.Price == auction.BuyNowPrice {
		auction.State = domain.AuctionClosed
		if err := s.saveAuction(ctx, st, fx, auction); err != nil {
			return nil, err
		}
		if err := s.dropProxyOrder(ctx, st, auctionID); err != nil {
			return nil, err
		}
		s.log.Info("Auction settled at buy-now price", "auction_id", auctionID, "bidder_id", bidderID, "price", manual.Price)
		return manual, nil
	}

	if err := s.saveAuction(ctx, st, fx, auction); err != nil {
		return nil, err
	}

	if err := s.cascadeProxy(ctx, st, fx, auction, manual); err != nil {
		return nil, err
	}
	return manual, nil
}

func (s *BidService) cascadeProxy(ctx context.Context, st domain.Stores, fx *outbox, auction *domain.Auction, manual *domain.Bid) error {
	order, err := st.Proxies.GetByAuction(ctx, auction.ID)
	if err != nil {
		return fmt.Errorf("%w: read proxy order: %w", domain.ErrDependencyFailure, err)
	}
	if order == nil {
		return nil
	}
	if order.BidderID == manual.BidderID {
		s.log.Debug("Proxy order belongs to the manual bidder, no cascade", "auction_id", auction.ID, "bidder_id", manual.BidderID)
		return nil
	}

	counterPrice := MinimumAcceptable(manual.Price)
	if order.CeilingPrice < counterPrice {
		if err := st.Proxies.Delete(ctx, order); err != nil {
			return fmt.Errorf("%w: delete exhausted proxy order: %w", domain.ErrDependencyFailure, err)
		}
		fx.notify(newNotification(auction, order.BidderID, domain.NotifyProxyExhausted, manual.Price))
		s.log.Info("Proxy order exhausted", "auction_id", auction.ID, "bidder_id", order.BidderID,
			"ceiling", order.CeilingPrice, "required", counterPrice)
		return nil
	}

	proxyBid, err := s.commitBid(ctx, st, auction.ID, order.BidderID, min(counterPrice, auction.BuyNowPrice))
	if err != nil {
		return err
	}
	fx.notify(newNotification(auction, manual.BidderID, domain.NotifyOutbidByProxy, proxyBid.Price))
	fx.recordHistory(order.BidderID, auction.Category, auction.Name)

	closed := proxyBid.Price == auction.BuyNowPrice
	if closed {
		auction.State = domain.AuctionClosed
	}
	auction.CurrentTopPrice = proxyBid.Price
	if err := s.saveAuction(ctx, st, fx, auction); err != nil {
		return err
	}

	if closed {
		if err := st.Proxies.Delete(ctx, order); err != nil {
			return fmt.Errorf("%w: delete settled proxy order: %w", domain.ErrDependencyFailure, err)
		}
		s.log.Info("Auction settled at buy-now price by proxy", "auction_id", auction.ID, "bidder_id", order.BidderID)
	}
	return nil
}

func (s *BidService) commitBid(ctx context.Context, st domain.Stores, auctionID, bidderID string, price int64) (*domain.Bid, error) {
	bid, err := st.Bids.Save(ctx, &domain.Bid{
		ID:        utils.GenerateID(""),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Price:     price,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: save bid: %w", domain.ErrDependencyFailure, err)
	}
	return bid, nil
}

func (s *BidService) saveAuction(ctx context.Context, st domain.Stores, fx *outbox, auction *domain.Auction) error {
	auction.Version++
	auction.UpdatedAt = time.Now().UTC()
	if err := st.Auctions.Save(ctx, auction); err != nil {
		return fmt.Errorf("%w: save auction: %w", domain.ErrDependencyFailure, err)
	}
	fx.auctionPersisted(auction)
	return nil
}

func (s *BidService) dropProxyOrder(ctx context.Context, st domain.Stores, auctionID string) error {
	order, err := st.Proxies.GetByAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("%w: read proxy order: %w", domain.ErrDependencyFailure, err)
	}
	if order == nil {
		return nil
	}
	if err := st.Proxies.Delete(ctx, order); err != nil {
		return fmt.Errorf("%w: delete proxy order: %w", domain.ErrDependencyFailure, err)
	}
	return nil
}

func (s *BidService) logRejection(auctionID, bidderID string, offerPrice int64, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidOperation), errors.Is(err, domain.ErrNotFound):
		s.log.Info("Bid rejected", "auction_id", auctionID, "bidder_id", bidderID, "offer", offerPrice, "reason", err)
	case errors.Is(err, domain.ErrConcurrencyTimeout):
		s.log.Warn("Bid timed out waiting for lock", "auction_id", auctionID, "bidder_id", bidderID)
	default:
		s.log.Error("Failed to place bid", "auction_id", auctionID, "bidder_id", bidderID, "error", err)
	}
}

// TopBid returns the highest committed bid, or nil when the auction has none.
func (s *BidService) TopBid(ctx context.Context, auctionID string) (*domain.Bid, error) {
	bid, err := s.bidRepo.TopByAuctionDesc(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("%w: read top bid: %w", domain.ErrDependencyFailure, err)
	}
	return bid, nil
}

// ListBids returns the auction's bids, highest price first.
func (s *BidService) ListBids(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	bids, err := s.bidRepo.ListByAuctionDesc(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("%w: list bids: %w", domain.ErrDependencyFailure, err)
	}
	return bids, nil
}

func loadAuction(ctx context.Context, repo domain.AuctionRepository, auctionID string) (*domain.Auction, error) {
	auction, err := repo.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("auction %s: %w", auctionID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: load auction %s: %w", domain.ErrDependencyFailure, auctionID, err)
	}
	return auction, nil
}

func newNotification(auction *domain.Auction, recipientID string, kind domain.NotificationKind, price int64) *domain.Notification {
	return &domain.Notification{
		RecipientID: recipientID,
		Kind:        kind,
		AuctionID:   auction.ID,
		AuctionName: auction.Name,
		ImageURL:    auction.CoverImage(),
		Price:       price,
		Timestamp:   time.Now().UTC(),
	}
}
