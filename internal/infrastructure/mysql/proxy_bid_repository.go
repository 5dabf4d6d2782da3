package mysql

import (
	"context"
	"database/sql"

	"bidmarket/internal/domain"

	"github.com/pkg/errors"
)

// MySQLProxyBidRepository keeps one row per auction; auction_id is the primary key.
type MySQLProxyBidRepository struct {
	db DBTX
}

func NewMySQLProxyBidRepository(db DBTX) *MySQLProxyBidRepository {
	return &MySQLProxyBidRepository{db: db}
}

func (r *MySQLProxyBidRepository) GetByAuction(ctx context.Context, auctionID string) (*domain.ProxyBidOrder, error) {
	query := `SELECT auction_id, bidder_id, ceiling_price FROM proxy_bids WHERE auction_id = ?`

	var order domain.ProxyBidOrder
	err := r.db.QueryRowContext(ctx, query, auctionID).Scan(&order.AuctionID, &order.BidderID, &order.CeilingPrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed on query proxy bid")
	}
	return &order, nil
}

func (r *MySQLProxyBidRepository) Save(ctx context.Context, order *domain.ProxyBidOrder) error {
	query := `
        INSERT INTO proxy_bids (auction_id, bidder_id, ceiling_price)
        VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE bidder_id = VALUES(bidder_id), ceiling_price = VALUES(ceiling_price)
    `
	if _, err := r.db.ExecContext(ctx, query, order.AuctionID, order.BidderID, order.CeilingPrice); err != nil {
		return errors.Wrap(err, "failed on upsert proxy bid")
	}
	return nil
}

func (r *MySQLProxyBidRepository) Delete(ctx context.Context, order *domain.ProxyBidOrder) error {
	query := `DELETE FROM proxy_bids WHERE auction_id = ? AND bidder_id = ?`
	if _, err := r.db.ExecContext(ctx, query, order.AuctionID, order.BidderID); err != nil {
		return errors.Wrap(err, "failed on delete proxy bid")
	}
	return nil
}
