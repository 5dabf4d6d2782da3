package mysql

import (
	"context"
	"database/sql"

	"bidmarket/internal/domain"

	"github.com/pkg/errors"
)

type MySQLBidRepository struct {
	db DBTX
}

func NewMySQLBidRepository(db DBTX) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

func (r *MySQLBidRepository) Save(ctx context.Context, bid *domain.Bid) (*domain.Bid, error) {
	query := `
        INSERT INTO bids (id, auction_id, bidder_id, price, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		bid.ID, bid.AuctionID, bid.BidderID, bid.Price, bid.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed on insert bid")
	}

	saved := *bid
	return &saved, nil
}

func (r *MySQLBidRepository) TopByAuctionDesc(ctx context.Context, auctionID string) (*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, price, created_at
        FROM bids WHERE auction_id = ?
        ORDER BY price DESC, created_at ASC
        LIMIT 1
    `

	var bid domain.Bid
	err := r.db.QueryRowContext(ctx, query, auctionID).Scan(
		&bid.ID, &bid.AuctionID, &bid.BidderID, &bid.Price, &bid.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed on query top bid")
	}
	return &bid, nil
}

func (r *MySQLBidRepository) ListByAuctionDesc(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, price, created_at
        FROM bids WHERE auction_id = ?
        ORDER BY price DESC, created_at ASC
    `

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed on query bids")
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var bid domain.Bid
		if err := rows.Scan(&bid.ID, &bid.AuctionID, &bid.BidderID, &bid.Price, &bid.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed on scan bid")
		}
		bids = append(bids, &bid)
	}
	return bids, rows.Err()
}
